package account

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Statement is a bank export to ingest for an account.
type Statement struct {
	Path string `yaml:"path"`
	Bank string `yaml:"bank"`
}

// Config is one entry of the accounts file.
type Config struct {
	Account    `yaml:",inline"`
	Statements []Statement `yaml:"statements"`
}

type file struct {
	Accounts []Config `yaml:"accounts"`
}

// Load reads the accounts file. Relative statement paths are resolved
// against the file's directory.
func Load(path string) ([]Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening accounts file: %w", err)
	}
	defer f.Close()

	cfgs, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	dir := filepath.Dir(path)

	for i := range cfgs {
		for j, st := range cfgs[i].Statements {
			if st.Path != "" && !filepath.IsAbs(st.Path) {
				cfgs[i].Statements[j].Path = filepath.Join(dir, st.Path)
			}
		}
	}

	return cfgs, nil
}

func Decode(r io.Reader) ([]Config, error) {
	var doc file

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding accounts: %w", err)
	}

	seen := make(map[Key]bool, len(doc.Accounts))

	for i, c := range doc.Accounts {
		if err := c.Account.Validate(); err != nil {
			return nil, fmt.Errorf("account %d: %w", i+1, err)
		}

		if seen[c.Key()] {
			return nil, fmt.Errorf("account %d: duplicate account %s", i+1, c.Key())
		}

		seen[c.Key()] = true
	}

	return doc.Accounts, nil
}

// SetOf builds the active set from loaded entries.
func SetOf(cfgs []Config) *Set {
	accounts := make([]Account, len(cfgs))
	for i, c := range cfgs {
		accounts[i] = c.Account
	}

	return NewSet(accounts...)
}
