package network

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrNotFound = errors.New("network not found")

const (
	Localhost = "localhost"
	Devnet    = "devnet"
)

// Profile holds the endpoints of one settlement network.
type Profile struct {
	Name         string `yaml:"name" json:"name"`
	APIURL       string `yaml:"api_url" json:"api_url"`
	RPCURL       string `yaml:"rpc_url" json:"rpc_url"`
	WebsocketURL string `yaml:"websocket_url" json:"websocket_url"`
	ProverURL    string `yaml:"prover_url" json:"prover_url"`
}

// Registry is a set of named profiles. Files may be YAML or JSON.
type Registry struct {
	SchemaVersion int       `yaml:"schema_version" json:"schema_version"`
	Networks      []Profile `yaml:"networks" json:"networks"`
}

// Builtin returns the built-in localhost and devnet profiles.
func Builtin() Registry {
	return Registry{
		SchemaVersion: 1,
		Networks: []Profile{
			{
				Name:         Localhost,
				APIURL:       "http://localhost:1317",
				RPCURL:       "http://localhost:26657",
				WebsocketURL: "ws://localhost:26657/websocket",
				ProverURL:    "http://localhost:3000",
			},
			{
				Name:         Devnet,
				APIURL:       "https://api.devnet.hyle.eu",
				RPCURL:       "https://rpc.devnet.hyle.eu",
				WebsocketURL: "wss://rpc.devnet.hyle.eu/websocket",
				ProverURL:    "https://vibe.hyle.eu/cairo-prover",
			},
		},
	}
}

func Load(path string) (Registry, error) {
	var out Registry
	path = strings.TrimSpace(path)
	if path == "" {
		return Registry{}, errors.New("path required")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Registry{}, err
	}
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return Registry{}, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, p := range out.Networks {
		if err := p.Validate(); err != nil {
			return Registry{}, fmt.Errorf("network %d: %w", i, err)
		}
	}
	return out, nil
}

func (r Registry) FindByName(name string) (Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Profile{}, errors.New("name required")
	}
	for _, p := range r.Networks {
		if p.Name == name {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Merge returns r with the profiles of other added, replacing same-named
// ones field by field.
func (r Registry) Merge(other Registry) Registry {
	out := Registry{SchemaVersion: r.SchemaVersion, Networks: append([]Profile(nil), r.Networks...)}
	for _, p := range other.Networks {
		replaced := false
		for i := range out.Networks {
			if out.Networks[i].Name == p.Name {
				out.Networks[i] = out.Networks[i].overlay(p)
				replaced = true
				break
			}
		}
		if !replaced {
			out.Networks = append(out.Networks, p)
		}
	}
	return out
}

func (p Profile) overlay(o Profile) Profile {
	if o.APIURL != "" {
		p.APIURL = o.APIURL
	}
	if o.RPCURL != "" {
		p.RPCURL = o.RPCURL
	}
	if o.WebsocketURL != "" {
		p.WebsocketURL = o.WebsocketURL
	}
	if o.ProverURL != "" {
		p.ProverURL = o.ProverURL
	}
	return p
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("name required")
	}
	for field, raw := range map[string]string{
		"api_url":       p.APIURL,
		"rpc_url":       p.RPCURL,
		"websocket_url": p.WebsocketURL,
		"prover_url":    p.ProverURL,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s: invalid url %q", field, raw)
		}
	}
	return nil
}

// ContractURL is the API endpoint describing a registered contract.
func (p Profile) ContractURL(contract string) string {
	return strings.TrimRight(p.APIURL, "/") + "/hyle/zktx/v1/contract/" + url.PathEscape(contract)
}

// FromEnv resolves the active profile:
//
//   - SMILE_NETWORK selects the profile (default localhost)
//   - SMILE_NETWORK_CONFIG names a YAML/JSON file merged over the built-ins
//   - SMILE_PROVER_URL overrides the prover endpoint
func FromEnv() (Profile, error) {
	return Resolve(os.Getenv("SMILE_NETWORK"), os.Getenv("SMILE_NETWORK_CONFIG"), os.Getenv("SMILE_PROVER_URL"))
}

// Resolve picks name from the built-ins merged with the file at configPath
// (if set) and applies proverURL (if set).
func Resolve(name, configPath, proverURL string) (Profile, error) {
	reg := Builtin()
	if strings.TrimSpace(configPath) != "" {
		extra, err := Load(configPath)
		if err != nil {
			return Profile{}, err
		}
		reg = reg.Merge(extra)
	}
	if strings.TrimSpace(name) == "" {
		name = Localhost
	}
	p, err := reg.FindByName(name)
	if err != nil {
		return Profile{}, err
	}
	if raw := strings.TrimSpace(proverURL); raw != "" {
		p.ProverURL = raw
	}
	return p, p.Validate()
}
