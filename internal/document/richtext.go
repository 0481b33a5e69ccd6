package document

import (
	"strings"

	"golang.org/x/net/html"
)

// plainText 将机构门户提交的富文本需求描述转换为展示用纯文本。
// 不含标签的输入原样返回（仅折叠空白）。匹配始终使用原始 requirements。
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return collapseSpaces(s)
	}

	node, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return collapseSpaces(s)
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode {
			// 块级与换行元素之间补空格，避免相邻词粘连。
			b.WriteByte(' ')
		}
	}
	walk(node)
	return collapseSpaces(b.String())
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
