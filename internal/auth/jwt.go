package auth

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// Config 令牌签名配置。AdminRoles 为允许操作匹配接口的角色。
type Config struct {
	Secret     string   `mapstructure:"secret" yaml:"secret" json:"-"`
	Issuer     string   `mapstructure:"issuer" yaml:"issuer" json:"issuer"`
	AdminRoles []string `mapstructure:"admin_roles" yaml:"admin_roles" json:"admin_roles"`
}

// Enabled 未配置密钥时接口不做鉴权。
func (c Config) Enabled() bool {
	return c.Secret != ""
}

// Claims 标准声明加上角色。
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Principal 已通过校验的操作人。
type Principal struct {
	Subject string
	Role    string
}

// Verifier 签发与校验 HS256 令牌。
type Verifier struct {
	secret []byte
	issuer string
	roles  []string
	now    func() time.Time
}

// NewVerifier 创建 Verifier，未配置角色时默认 admin 与 staff。
func NewVerifier(cfg Config) *Verifier {
	roles := cfg.AdminRoles
	if len(roles) == 0 {
		roles = []string{"admin", "staff"}
	}
	return &Verifier{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		roles:  roles,
		now:    time.Now,
	}
}

// Issue 签发令牌，供 CLI 生成开发环境令牌。
func (v *Verifier) Issue(subject, role string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("issue token: empty subject")
	}
	now := v.now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse 校验令牌签名、过期时间与签发方。
func (v *Verifier) Parse(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, fmt.Errorf("%w: empty token", ErrUnauthenticated)
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: token is not valid", ErrUnauthenticated)
	}
	return claims, nil
}

// Authenticate 读取 Authorization 头并检查角色。
func (v *Verifier) Authenticate(r *http.Request) (Principal, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return Principal{}, fmt.Errorf("%w: missing Authorization header", ErrUnauthenticated)
	}
	scheme, tokenStr, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return Principal{}, fmt.Errorf("%w: expected bearer token", ErrUnauthenticated)
	}

	claims, err := v.Parse(strings.TrimSpace(tokenStr))
	if err != nil {
		return Principal{}, err
	}
	if claims.Subject == "" {
		return Principal{}, fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}
	if !slices.Contains(v.roles, claims.Role) {
		return Principal{}, fmt.Errorf("%w: role %q", ErrForbidden, claims.Role)
	}
	return Principal{Subject: claims.Subject, Role: claims.Role}, nil
}
