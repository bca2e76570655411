package imports

import (
	"context"
	"reflect"
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		content string
		want    []string
		wantOK  bool
	}{
		{
			name: "go import block",
			path: "main.go",
			content: `package main

import (
	"fmt"
	stripe "github.com/stripe/stripe-go/v76"
)

import "os"
`,
			want:   []string{"fmt", "github.com/stripe/stripe-go/v76", "os"},
			wantOK: true,
		},
		{
			name:    "typescript import and require",
			path:    "src/pay.ts",
			content: "import Stripe from 'stripe'\nconst redis = require(\"redis\")\n",
			want:    []string{"redis", "stripe"},
			wantOK:  true,
		},
		{
			name:    "python import forms",
			path:    "app.py",
			content: "import os\nfrom openai import OpenAI\n",
			want:    []string{"openai", "os"},
			wantOK:  true,
		},
		{
			name:    "java imports",
			path:    "A.java",
			content: "package a;\nimport org.apache.kafka.clients.producer.KafkaProducer;\nclass A {}\n",
			want:    []string{"org.apache.kafka.clients.producer.KafkaProducer"},
			wantOK:  true,
		},
		{
			name:    "dart uses regex",
			path:    "lib/main.dart",
			content: "import 'package:firebase_core/firebase_core.dart';\n",
			want:    []string{"package:firebase_core/firebase_core.dart"},
			wantOK:  true,
		},
		{
			name:    "supported file without imports",
			path:    "src/pay.ts",
			content: "const s = stripe.customers.create({})\n",
			want:    nil,
			wantOK:  true,
		},
		{
			name:    "unsupported file",
			path:    "README.md",
			content: "import x from 'y'\n",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(context.Background(), tt.path, []byte(tt.content))
			if ok != tt.wantOK {
				t.Errorf("Extract() ok = %v, want %v", ok, tt.wantOK)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScanRegex_GoBlockEndsAtParen(t *testing.T) {
	content := "import (\n\t\"fmt\"\n)\n\nvar s = \"not-an-import\"\n"
	got := dedupe(ScanRegex(LangGo, []byte(content)))
	if !reflect.DeepEqual(got, []string{"fmt"}) {
		t.Errorf("ScanRegex() = %v", got)
	}
}

func TestLanguageFromPath(t *testing.T) {
	if lang, ok := LanguageFromPath("x/Y.TSX"); !ok || lang != LangTSX {
		t.Errorf("got %v %v", lang, ok)
	}
	if _, ok := LanguageFromPath("Makefile"); ok {
		t.Error("expected no language for Makefile")
	}
}
