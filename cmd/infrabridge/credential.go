package main

import (
	"fmt"
	"io"

	"github.com/lucksec/infrabridge/internal/credentials"
	"github.com/spf13/cobra"
)

// credentialCmd 凭据命令组
func credentialCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "云服务商凭据检查",
		Long: `凭据从进程环境变量读取，其次读取工作目录下的 .env 文件。

必需的变量:
  ARM_SUBSCRIPTION_ID  Azure 订阅 ID
  ARM_CLIENT_ID        服务主体 Client ID
  ARM_CLIENT_SECRET    服务主体 Client Secret
  ARM_TENANT_ID        租户 ID
  PUBLIC_KEY_PATH      SSH 密钥路径
  ANSIBLE_USER         远程登录用户`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "检查必需的凭据是否齐全",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.checkCredentials(cmd.OutOrStdout())
		},
	})
	return cmd
}

// checkCredentials 打印每个凭据的状态，缺失时返回 MissingCredentialError
func (a *app) checkCredentials(out io.Writer) error {
	for _, name := range credentials.RequiredNames {
		value, ok := a.lookup(name)
		switch {
		case !ok || value == "":
			fmt.Fprintf(out, "  %-20s 缺失\n", name)
		case credentials.IsSecret(name):
			fmt.Fprintf(out, "  %-20s %s\n", name, credentials.MaskSecret(value))
		default:
			fmt.Fprintf(out, "  %-20s %s\n", name, value)
		}
	}

	set, err := credentials.Validate(credentials.RequiredNames, a.lookup)
	if err != nil {
		return err
	}

	info, err := credentials.InspectKey(set.PublicKeyPath())
	if err != nil {
		fmt.Fprintf(out, "\n警告: %v\n", err)
	} else {
		kind := "公钥"
		if info.Private {
			kind = "私钥"
		}
		fmt.Fprintf(out, "\nSSH %s: %s %s\n", kind, info.Type, info.Fingerprint)
	}

	fmt.Fprintln(out, "凭据齐全")
	return nil
}
