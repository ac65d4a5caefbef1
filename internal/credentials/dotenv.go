package credentials

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/ini.v1"
)

// LoadDotenv 读取 .env 文件（KEY=VALUE 形式）
// 文件不存在时返回空集合
func LoadDotenv(path string) (map[string]string, error) {
	values := make(map[string]string)
	if path == "" {
		return values, nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return values, nil
	}

	// .env 没有分区，所有键都落在默认分区
	cfg, err := ini.LoadSources(ini.LoadOptions{
		KeyValueDelimiters:        "=",
		IgnoreInlineComment:       true,
		UnescapeValueDoubleQuotes: true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("解析 dotenv 文件 %s 失败: %w", path, err)
	}

	for _, key := range cfg.Section(ini.DefaultSection).Keys() {
		name := key.Name()
		// 兼容 "export KEY=VALUE" 写法
		if len(name) > 7 && name[:7] == "export " {
			name = name[7:]
		}
		values[name] = key.Value()
	}
	return values, nil
}

// MapLookup 将 map 包装为 LookupFunc
func MapLookup(values map[string]string) LookupFunc {
	return func(name string) (string, bool) {
		v, ok := values[name]
		return v, ok
	}
}

// ChainLookup 按顺序查找，返回第一个非空值
// 典型用法：ChainLookup(os.LookupEnv, MapLookup(dotenv))，进程环境优先
func ChainLookup(lookups ...LookupFunc) LookupFunc {
	return func(name string) (string, bool) {
		for _, lookup := range lookups {
			if lookup == nil {
				continue
			}
			if v, ok := lookup(name); ok && v != "" {
				return v, true
			}
		}
		return "", false
	}
}

// EnvLookup 构建默认查找链：进程环境变量，其次为 dotenv 文件
func EnvLookup(envFile string) (LookupFunc, error) {
	values, err := LoadDotenv(envFile)
	if err != nil {
		return nil, err
	}
	return ChainLookup(os.LookupEnv, MapLookup(values)), nil
}
