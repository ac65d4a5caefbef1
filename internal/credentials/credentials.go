package credentials

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/lucksec/infrabridge/internal/domain"
)

// 必需的凭据环境变量
const (
	EnvSubscriptionID = "ARM_SUBSCRIPTION_ID"
	EnvClientID       = "ARM_CLIENT_ID"
	EnvClientSecret   = "ARM_CLIENT_SECRET"
	EnvTenantID       = "ARM_TENANT_ID"
	EnvPublicKeyPath  = "PUBLIC_KEY_PATH"
	EnvAnsibleUser    = "ANSIBLE_USER"
)

// RequiredNames 流水线运行前必须存在的凭据，顺序即 CredentialSet 的顺序
var RequiredNames = []string{
	EnvSubscriptionID,
	EnvClientID,
	EnvClientSecret,
	EnvTenantID,
	EnvPublicKeyPath,
	EnvAnsibleUser,
}

// InventoryNames 仅生成主机清单（不调用 Terraform）时需要的凭据
var InventoryNames = []string{
	EnvPublicKeyPath,
	EnvAnsibleUser,
}

// 只传给 Terraform 的云服务商凭据
var providerNames = []string{
	EnvSubscriptionID,
	EnvClientID,
	EnvClientSecret,
	EnvTenantID,
}

// 含敏感信息的凭据，展示时需要遮蔽
var secretNames = map[string]bool{
	EnvClientSecret: true,
}

// LookupFunc 按名称查找凭据值，签名同 os.LookupEnv
type LookupFunc func(name string) (string, bool)

// Credential 单个凭据
type Credential struct {
	Name  string
	Value string
}

// CredentialSet 已校验的凭据集合，保持校验时的名称顺序
type CredentialSet struct {
	items []Credential
}

// MissingCredentialError 缺失的凭据列表
type MissingCredentialError struct {
	Names []string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("缺少必需的凭据环境变量: %s", strings.Join(e.Names, ", "))
}

func (e *MissingCredentialError) Unwrap() error {
	return domain.ErrConfiguration
}

// Validate 一次性读取全部凭据
// 任一凭据不存在或为空时返回 *MissingCredentialError，列出所有缺失项
func Validate(names []string, lookup LookupFunc) (*CredentialSet, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	set := &CredentialSet{items: make([]Credential, 0, len(names))}
	var missing []string
	for _, name := range names {
		value, ok := lookup(name)
		if !ok || value == "" {
			missing = append(missing, name)
			continue
		}
		set.items = append(set.items, Credential{Name: name, Value: value})
	}

	if len(missing) > 0 {
		return nil, &MissingCredentialError{Names: missing}
	}
	return set, nil
}

// IsMissing 判断错误是否为凭据缺失
func IsMissing(err error) bool {
	var target *MissingCredentialError
	return errors.As(err, &target)
}

// Get 按名称获取凭据值
func (s *CredentialSet) Get(name string) string {
	for _, c := range s.items {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// Items 返回凭据副本
func (s *CredentialSet) Items() []Credential {
	out := make([]Credential, len(s.items))
	copy(out, s.items)
	return out
}

// AnsibleUser 远程登录用户
func (s *CredentialSet) AnsibleUser() string {
	return s.Get(EnvAnsibleUser)
}

// PublicKeyPath 公钥路径，同时用作 ansible_ssh_private_key_file
func (s *CredentialSet) PublicKeyPath() string {
	return s.Get(EnvPublicKeyPath)
}

// TerraformEnv 返回传给 Terraform 进程的环境变量（KEY=VALUE 形式）
func (s *CredentialSet) TerraformEnv() []string {
	var env []string
	for _, name := range providerNames {
		if v := s.Get(name); v != "" {
			env = append(env, name+"="+v)
		}
	}
	if p := s.PublicKeyPath(); p != "" {
		env = append(env, "TF_VAR_public_key_path="+p)
	}
	return env
}

// IsSecret 判断凭据是否需要遮蔽
func IsSecret(name string) bool {
	return secretNames[name]
}

// MaskSecret 只显示前4位和后4位
func MaskSecret(s string) string {
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
}
