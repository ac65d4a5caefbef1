package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/lucksec/infrabridge/internal/domain"
)

// HostsOutputName terraform output 中主机列表的输出名
const HostsOutputName = "vm_public_ips"

// terraform output -json 中单个输出的结构
type tfOutput struct {
	Sensitive bool            `json:"sensitive"`
	Type      json.RawMessage `json:"type"`
	Value     json.RawMessage `json:"value"`
}

// vm_public_ips.value 中单台主机的结构，指针用于区分缺失字段
type tfHost struct {
	Hostname *string `json:"hostname"`
	IP       *string `json:"ip"`
	Role     *string `json:"role"`
}

// ParseHostOutputs 解析 terraform output -json 的结果
// 记录顺序与 JSON 文档中的键顺序一致；结构不符时返回 ErrProvision
func ParseHostOutputs(data []byte) ([]domain.HostRecord, error) {
	var outputs map[string]tfOutput
	if err := json.Unmarshal(data, &outputs); err != nil {
		return nil, fmt.Errorf("%w: terraform output 不是有效的 JSON 对象: %w", domain.ErrProvision, err)
	}

	out, ok := outputs[HostsOutputName]
	if !ok {
		return nil, fmt.Errorf("%w: terraform output 缺少 %s", domain.ErrProvision, HostsOutputName)
	}
	value := bytes.TrimSpace(out.Value)
	if len(value) == 0 || value[0] != '{' {
		return nil, fmt.Errorf("%w: %s.value 必须是对象", domain.ErrProvision, HostsOutputName)
	}

	records, err := decodeHosts(value)
	if err != nil {
		return nil, fmt.Errorf("%w: 解析 %s.value 失败: %w", domain.ErrProvision, HostsOutputName, err)
	}
	return records, nil
}

// decodeHosts 逐个 token 读取对象，保留键顺序
func decodeHosts(value []byte) ([]domain.HostRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(value))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	records := []domain.HostRecord{}
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		id, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("意外的 token %v", tok)
		}
		if seen[id] {
			return nil, fmt.Errorf("资源 %s 重复出现", id)
		}
		seen[id] = true

		var host tfHost
		if err := dec.Decode(&host); err != nil {
			return nil, fmt.Errorf("资源 %s: %w", id, err)
		}
		if host.Hostname == nil {
			return nil, fmt.Errorf("资源 %s 缺少 hostname", id)
		}
		if host.IP == nil {
			return nil, fmt.Errorf("资源 %s 缺少 ip", id)
		}

		record := domain.HostRecord{ID: id, Hostname: *host.Hostname, IP: *host.IP}
		if host.Role != nil {
			record.Role = *host.Role
		}
		if err := checkInventoryToken(id, "hostname", record.Hostname, ""); err != nil {
			return nil, err
		}
		if err := checkInventoryToken(id, "ip", record.IP, ""); err != nil {
			return nil, err
		}
		if err := checkInventoryToken(id, "role", record.Role, "[]"); err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("对象之后存在多余内容")
	}
	return records, nil
}

// checkInventoryToken 字段会原样写入主机清单，不能包含空白、控制字符或 extra 中的字符
func checkInventoryToken(id, field, v, extra string) error {
	bad := strings.IndexFunc(v, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r) || strings.ContainsRune(extra, r)
	})
	if bad >= 0 {
		return fmt.Errorf("资源 %s 的 %s 含有非法字符 %q", id, field, v)
	}
	return nil
}

// ParseHostOutputsFile 从文件读取 terraform output -json 的结果
func ParseHostOutputsFile(path string) ([]domain.HostRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ioError("读取 terraform output", path, err)
	}
	return ParseHostOutputs(data)
}
