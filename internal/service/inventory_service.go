package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucksec/infrabridge/internal/domain"
	"gopkg.in/ini.v1"
)

// AllVarsSection 全局变量分区名
const AllVarsSection = "all:vars"

// emptyRoleSection 读取时代替 "[]" 的分区名，ini.v1 不接受空分区名
// 角色不能含空白，因此不会与真实角色冲突
const emptyRoleSection = "empty role"

// BuildInventory 按角色对主机分组
// 分组顺序为角色首次出现的顺序，组内保持输入顺序；空角色也单独成组
func BuildInventory(records []domain.HostRecord, vars domain.InventoryVars) *domain.Inventory {
	inv := &domain.Inventory{
		Groups: []domain.InventoryGroup{},
		Vars:   vars,
	}

	index := make(map[string]int)
	for _, r := range records {
		i, ok := index[r.Role]
		if !ok {
			i = len(inv.Groups)
			index[r.Role] = i
			inv.Groups = append(inv.Groups, domain.InventoryGroup{Role: r.Role})
		}
		inv.Groups[i].Members = append(inv.Groups[i].Members, r)
	}
	return inv
}

// RenderInventory 生成 INI 格式的主机清单
func RenderInventory(inv *domain.Inventory) []byte {
	var b strings.Builder
	for _, g := range inv.Groups {
		fmt.Fprintf(&b, "[%s]\n", g.Role)
		for _, m := range g.Members {
			fmt.Fprintf(&b, "%s ansible_host=%s\n", m.Hostname, m.IP)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "[%s]\n", AllVarsSection)
	fmt.Fprintf(&b, "ansible_user=%s\n", inv.Vars.User)
	fmt.Fprintf(&b, "ansible_ssh_private_key_file=%s\n", inv.Vars.PrivateKeyFile)
	return []byte(b.String())
}

// WriteInventory 写入主机清单文件，每次运行覆盖
func WriteInventory(path string, inv *domain.Inventory) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return ioError("创建目录", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, RenderInventory(inv), 0644); err != nil {
		return ioError("写入主机清单", path, err)
	}
	return nil
}

// ParseInventory 读取已生成的主机清单，用于展示
// 只识别 "<hostname> ansible_host=<ip>" 形式的主机行
func ParseInventory(path string) (*domain.Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ioError("读取主机清单", path, err)
	}
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "[]" {
			lines[i] = "[" + emptyRoleSection + "]"
		}
	}

	file, err := ini.LoadSources(ini.LoadOptions{
		AllowShadows:        true,
		AllowBooleanKeys:    true,
		KeyValueDelimiters:  "=",
		IgnoreInlineComment: true,
	}, []byte(strings.Join(lines, "\n")))
	if err != nil {
		return nil, ioError("读取主机清单", path, err)
	}

	inv := &domain.Inventory{Groups: []domain.InventoryGroup{}}
	for _, section := range file.Sections() {
		name := section.Name()
		if name == ini.DefaultSection {
			continue
		}
		if name == AllVarsSection {
			inv.Vars.User = section.Key("ansible_user").String()
			inv.Vars.PrivateKeyFile = section.Key("ansible_ssh_private_key_file").String()
			continue
		}

		role := name
		if name == emptyRoleSection {
			role = ""
		}
		group := domain.InventoryGroup{Role: role}
		for _, key := range section.Keys() {
			hostname, ok := strings.CutSuffix(key.Name(), " ansible_host")
			if !ok {
				continue
			}
			for _, ip := range key.ValueWithShadows() {
				group.Members = append(group.Members, domain.HostRecord{
					Hostname: strings.TrimSpace(hostname),
					IP:       ip,
					Role:     role,
				})
			}
		}
		inv.Groups = append(inv.Groups, group)
	}
	return inv, nil
}
