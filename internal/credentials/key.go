package credentials

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"
)

// KeyInfo SSH 密钥概要
type KeyInfo struct {
	Path        string
	Type        string // ssh-rsa, ssh-ed25519 ...
	Fingerprint string // SHA256:...
	Private     bool   // 文件是否为私钥
}

// InspectKey 解析 SSH 公钥（authorized_keys 格式）或未加密的私钥
func InspectKey(path string) (*KeyInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取密钥文件失败: %w", err)
	}

	if pub, _, _, _, err := ssh.ParseAuthorizedKey(data); err == nil {
		return &KeyInfo{
			Path:        path,
			Type:        pub.Type(),
			Fingerprint: ssh.FingerprintSHA256(pub),
		}, nil
	}

	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) && missing.PublicKey != nil {
			return &KeyInfo{
				Path:        path,
				Type:        missing.PublicKey.Type(),
				Fingerprint: ssh.FingerprintSHA256(missing.PublicKey),
				Private:     true,
			}, nil
		}
		return nil, fmt.Errorf("%s 不是有效的 SSH 密钥: %w", path, err)
	}

	pub := signer.PublicKey()
	return &KeyInfo{
		Path:        path,
		Type:        pub.Type(),
		Fingerprint: ssh.FingerprintSHA256(pub),
		Private:     true,
	}, nil
}
