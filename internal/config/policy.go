package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Policies are the operator-tunable editor behaviors, read from
// invoicedesk.yml:
//
//	editor:
//	  removeLast: reseed   # or noop
//	  afterCreate: reset   # or edit
type Policies struct {
	RemoveLast  string `mapstructure:"removeLast"`
	AfterCreate string `mapstructure:"afterCreate"`
}

func DefaultPolicies() Policies {
	return Policies{RemoveLast: "reseed", AfterCreate: "reset"}
}

// PolicyHolder serves the current Policies and swaps them when the file
// changes on disk.
type PolicyHolder struct {
	current atomic.Value // holds Policies
}

// NewPolicyHolder reads the policy file from $HOME/.config/invoicedesk or
// the working directory. A missing file yields the defaults.
func NewPolicyHolder(log *zap.Logger) (*PolicyHolder, error) {
	return newPolicyHolder(log, policySearchPaths()...)
}

func newPolicyHolder(log *zap.Logger, paths ...string) (*PolicyHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("config.policy")

	v := viper.New()
	v.SetConfigName("invoicedesk")
	v.SetConfigType("yml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix("INVOICEDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultPolicies()
	v.SetDefault("editor.removeLast", defaults.RemoveLast)
	v.SetDefault("editor.afterCreate", defaults.AfterCreate)

	found := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		found = false
	}

	cfg, err := readPolicies(v)
	if err != nil {
		return nil, err
	}

	holder := &PolicyHolder{}
	holder.current.Store(cfg)

	if found {
		v.OnConfigChange(func(e fsnotify.Event) {
			updated, err := readPolicies(v)
			if err != nil {
				log.Warn("invalid policy file ignored", zap.String("file", e.Name), zap.Error(err))
				return
			}
			holder.current.Store(updated)
			log.Info("policies reloaded", zap.String("file", e.Name))
		})
		v.WatchConfig()
	}

	return holder, nil
}

func (h *PolicyHolder) Get() Policies {
	return h.current.Load().(Policies)
}

func readPolicies(v *viper.Viper) (Policies, error) {
	p := Policies{
		RemoveLast:  strings.ToLower(strings.TrimSpace(v.GetString("editor.removeLast"))),
		AfterCreate: strings.ToLower(strings.TrimSpace(v.GetString("editor.afterCreate"))),
	}
	if err := validatePolicies(p); err != nil {
		return Policies{}, err
	}
	return p, nil
}

func validatePolicies(p Policies) error {
	switch p.RemoveLast {
	case "reseed", "noop":
	default:
		return errors.New("editor.removeLast must be reseed or noop")
	}
	switch p.AfterCreate {
	case "reset", "edit":
	default:
		return errors.New("editor.afterCreate must be reset or edit")
	}
	return nil
}

func policySearchPaths() []string {
	paths := []string{}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, ".config", "invoicedesk"))
	}
	return append(paths, ".")
}
