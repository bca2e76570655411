// Package testutil provides fixture projects and comparison helpers for
// tests that run the scan pipeline end to end.
package testutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// Project is a throwaway project tree rooted in t.TempDir()
type Project struct {
	t    *testing.T
	Root string
}

// NewProject creates a project containing files (repo-relative path to
// content).
func NewProject(t *testing.T, files map[string]string) *Project {
	t.Helper()
	p := &Project{t: t, Root: t.TempDir()}
	for rel, content := range files {
		p.Write(rel, content)
	}
	return p
}

// Path returns the absolute path of a repo-relative file
func (p *Project) Path(rel string) string {
	return filepath.Join(p.Root, filepath.FromSlash(rel))
}

// Write creates or replaces a file
func (p *Project) Write(rel, content string) {
	p.t.Helper()
	path := p.Path(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		p.t.Fatalf("Failed to create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		p.t.Fatalf("Failed to write %s: %v", rel, err)
	}
}

// Remove deletes a file
func (p *Project) Remove(rel string) {
	p.t.Helper()
	if err := os.Remove(p.Path(rel)); err != nil {
		p.t.Fatalf("Failed to remove %s: %v", rel, err)
	}
}

// StoreDir is the default store directory of the project
func (p *Project) StoreDir() string {
	return filepath.Join(p.Root, ".archgraph")
}

// StoreFiles reads every file under the store directory except the SQLite
// history, keyed by store-relative path. Useful to assert that a re-scan
// left the store byte-identical.
func (p *Project) StoreFiles() map[string][]byte {
	p.t.Helper()
	out := map[string][]byte{}
	root := p.StoreDir()
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), "history.db") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		out[filepath.ToSlash(rel)] = data
		return nil
	})
	if err != nil {
		p.t.Fatalf("Failed to read store: %v", err)
	}
	return out
}

// StoreList lists the store-relative paths under dir, sorted
func (p *Project) StoreList(dir string) []string {
	p.t.Helper()
	entries, err := os.ReadDir(filepath.Join(p.StoreDir(), dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		p.t.Fatalf("Failed to list %s: %v", dir, err)
	}
	var out []string
	for _, e := range entries {
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

// WebShop is a small polyglot project: a React frontend that talks to
// Postgres directly, a Go backend using Stripe and Redis, a Python worker
// with an OpenAI prompt, and compose infrastructure.
func WebShop() map[string]string {
	return map[string]string{
		"web/package.json": `{
  "name": "webshop-web",
  "dependencies": {
    "react": "^18.2.0",
    "pg": "^8.11.0"
  },
  "devDependencies": {
    "jest": "^29.0.0"
  }
}
`,
		"web/src/App.tsx": `import React from 'react'
import { Pool } from 'pg'

const pool = new Pool({ connectionString: "postgres://shop:shop@db:5432/shop" })

export function App() {
  return <div>shop</div>
}
`,
		"api/go.mod": `module example.com/webshop/api

go 1.22

require (
	github.com/stripe/stripe-go/v76 v76.0.0
	github.com/redis/go-redis/v9 v9.3.0
)
`,
		"api/pay.go": `package api

import (
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

func Charge(amount int64) error {
	stripe.Key = key()
	_, err := paymentintent.New(&stripe.PaymentIntentParams{Amount: stripe.Int64(amount)})
	return err
}
`,
		"api/cache.go": `package api

import "github.com/redis/go-redis/v9"

var rdb = redis.NewClient(&redis.Options{Addr: "cache:6379"})
`,
		"worker/summarize.py": `from openai import OpenAI

SYSTEM_PROMPT = """You summarize customer support tickets into one short paragraph for the on-call engineer."""

client = OpenAI()

def summarize(text):
    return client.chat.completions.create(model="gpt-4o", messages=[{"role": "user", "content": text}])
`,
		"docker-compose.yml": `services:
  db:
    image: postgres:16
  cache:
    image: redis:7
  api:
    build: ./api
    depends_on:
      - db
      - cache
`,
		"README.md": "# WebShop\n\nA demo shop.\n",
	}
}
