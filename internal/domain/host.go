package domain

// HostRecord 表示 Terraform 输出中的一台云主机
type HostRecord struct {
	ID       string `json:"id"`       // 资源标识（vm_public_ips 的键）
	Hostname string `json:"hostname"` // 主机名
	IP       string `json:"ip"`       // 公网 IP
	Role     string `json:"role"`     // 逻辑角色，用于分组（如 web, db）
}

// InventoryGroup 同一角色下的主机集合
type InventoryGroup struct {
	Role    string       `json:"role"`
	Members []HostRecord `json:"members"`
}

// InventoryVars 全局连接参数，对应 [all:vars]
type InventoryVars struct {
	User           string `json:"ansible_user"`
	PrivateKeyFile string `json:"ansible_ssh_private_key_file"`
}

// Inventory Ansible 主机清单
// 分组顺序为角色首次出现的顺序
type Inventory struct {
	Groups []InventoryGroup `json:"groups"`
	Vars   InventoryVars    `json:"vars"`
}

// HostCount 返回清单中的主机总数
func (inv *Inventory) HostCount() int {
	n := 0
	for _, g := range inv.Groups {
		n += len(g.Members)
	}
	return n
}

// Group 按角色查找分组
func (inv *Inventory) Group(role string) (*InventoryGroup, bool) {
	for i := range inv.Groups {
		if inv.Groups[i].Role == role {
			return &inv.Groups[i], true
		}
	}
	return nil, false
}
