package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MAKORA-ltd/anime-play/pkg/config"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，ANIMEPLAY_LOG_LEVEL 对应 log.level
const EnvPrefix = "ANIMEPLAY"

var (
	configPath string
	logPath    string
)

// LoadConfig 解析命令行并加载配置
// 优先级：命令行显式参数 > 环境变量 > 配置文件 > 默认值
func LoadConfig(target any, opts ...config.Option) (config.Manager, error) {
	execDir, err := GetExecDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable directory: %w", err)
	}

	defaultConfig := filepath.Join(execDir, "config.yaml")
	defaultLog := filepath.Join(execDir, "logs", "app.log")

	if pflag.Lookup("config") == nil {
		pflag.StringVarP(&configPath, "config", "c", defaultConfig, "path to config file")
	}
	if pflag.Lookup("log.path") == nil {
		pflag.StringVar(&logPath, "log.path", defaultLog, "output path for logs")
	}
	if !pflag.Parsed() {
		pflag.Parse()
	}

	path := configPath
	if !pflag.CommandLine.Changed("config") {
		if env := os.Getenv(EnvPrefix + "_CONFIG"); env != "" {
			path = env
		}
	}

	overrides := map[string]any{}
	if pflag.CommandLine.Changed("log.path") {
		overrides["log.output_path"] = logPath
		overrides["log.enable_file"] = true
	}

	return LoadConfigFrom(path, target, overrides, opts...)
}

// LoadConfigFrom 从指定文件加载配置，overrides 覆盖所有来源
func LoadConfigFrom(path string, target any, overrides map[string]any, opts ...config.Option) (config.Manager, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file not found at %s: %w", path, err)
	}
	configPath = path

	mgr := config.NewManager(append([]config.Option{config.WithViper(viper.New())}, opts...)...)
	mgr.BindEnv(EnvPrefix)

	if err := mgr.LoadFile(path); err != nil {
		return nil, err
	}
	for k, v := range overrides {
		mgr.Set(k, v)
	}

	if err := mgr.Unmarshal(target); err != nil {
		return nil, err
	}

	if out := mgr.GetString("log.output_path"); out != "" && !strings.HasPrefix(out, "/dev/") {
		_ = os.MkdirAll(filepath.Dir(out), 0o755)
	}

	return mgr, nil
}

// GetExecDir 返回可执行文件所在目录（解析符号链接）
func GetExecDir() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", err
	}
	realPath, err := filepath.EvalSymlinks(execPath)
	if err != nil {
		return filepath.Dir(execPath), nil
	}
	return filepath.Dir(realPath), nil
}

// GetConfigPath 返回最终使用的配置文件路径
func GetConfigPath() string {
	return configPath
}
