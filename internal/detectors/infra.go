package detectors

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"archgraph/internal/architecture"
	"archgraph/internal/confidence"
	"archgraph/internal/detect"
)

const (
	methodInfra = "infra"
	infraBase   = 0.9
)

var infraGlobs = []string{
	"Dockerfile", "Dockerfile.*", "*.dockerfile", "Containerfile",
	"docker-compose*.yml", "docker-compose*.yaml", "compose.yml", "compose.yaml",
	"*.tf",
	"**/.github/workflows/*.yml", "**/.github/workflows/*.yaml",
}

func infraDescriptor(catalog []*Signature) detect.Descriptor {
	return detect.Descriptor{
		Name:       "infra",
		Capability: detect.CapInfra,
		Include:    infraGlobs,
		Detect: func(ctx context.Context, in *detect.Input) (*detect.Result, error) {
			acc := detect.NewAccumulator()
			warnings, err := in.Each(ctx, func(src *confidence.Source) {
				base := strings.ToLower(path.Base(src.Path))
				switch {
				case strings.Contains(src.Path, ".github/workflows/"):
					scanWorkflow(in, src, acc)
				case strings.HasSuffix(base, ".tf"):
					scanTerraform(in, src, catalog, acc)
				case strings.HasPrefix(base, "docker-compose") || strings.HasPrefix(base, "compose."):
					scanCompose(in, src, catalog, acc)
				default:
					scanDockerfile(in, src, catalog, acc)
				}
			})
			acc.Warn(warnings...)
			return acc.Result(), err
		},
	}
}

func infraHit(name, purpose string, conn architecture.ConnectionType) detect.Hit {
	return detect.Hit{
		Type:           architecture.TypeInfra,
		Name:           name,
		Layer:          architecture.LayerInfra,
		Purpose:        purpose,
		Method:         methodInfra,
		ConnectionType: conn,
		Description:    fmt.Sprintf("%s %s", strings.ReplaceAll(string(conn), "-", " "), name),
	}
}

// record scores h at line and adds it when kept
func record(in *detect.Input, src *confidence.Source, acc *detect.Accumulator, h detect.Hit, line int, base float64) (detect.Hit, bool) {
	col := 0
	if h.Symbol != "" {
		if i := strings.Index(src.Line(line), h.Symbol); i >= 0 {
			col = i
		}
	}
	ev := confidence.Evidence{Line: line, Column: col, Base: base, ExpectString: true}
	h, ok := in.Score(src, ev, h)
	if ok {
		acc.AddHit(h)
	}
	return h, ok
}

// imageSignatures records the technologies a container image implies
func imageSignatures(in *detect.Input, src *confidence.Source, acc *detect.Accumulator, catalog []*Signature, image string, line int) []string {
	var ids []string
	for _, sig := range catalog {
		if !sig.matchesImage(image) {
			continue
		}
		h := sig.hit(methodInfra, architecture.ConnHosts)
		h.Symbol = image
		if h, ok := record(in, src, acc, h, line, infraBase); ok {
			ids = append(ids, h.ComponentID())
		}
	}
	return ids
}

var dockerFrom = regexp.MustCompile(`(?i)^\s*FROM\s+(?:--platform=\S+\s+)?(\S+)(?:\s+AS\s+(\S+))?`)

func scanDockerfile(in *detect.Input, src *confidence.Source, catalog []*Signature, acc *detect.Accumulator) {
	stages := map[string]bool{}
	for i, line := range src.Lines {
		m := dockerFrom.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		image := m[1]
		if m[2] != "" {
			stages[strings.ToLower(m[2])] = true
		}
		if stages[strings.ToLower(image)] || strings.EqualFold(image, "scratch") {
			continue
		}
		h := infraHit("docker", "container runtime", architecture.ConnHosts)
		h.Symbol = image
		h.Tags = []string{"image:" + imageName(image)}
		record(in, src, acc, h, i+1, infraBase)
		imageSignatures(in, src, acc, catalog, image, i+1)
	}
}

func scanCompose(in *detect.Input, src *confidence.Source, catalog []*Signature, acc *detect.Accumulator) {
	var doc yaml.Node
	if err := yaml.Unmarshal(src.Content, &doc); err != nil {
		acc.Warn(detect.Warning{Type: detect.WarnParse, Message: err.Error(), File: src.Path})
		return
	}
	services := mappingValue(documentRoot(&doc), "services")
	if services == nil || services.Kind != yaml.MappingNode {
		return
	}

	type service struct {
		hit       detect.Hit
		dependsOn []*yaml.Node
	}
	kept := map[string]service{}
	for i := 0; i+1 < len(services.Content); i += 2 {
		key, body := services.Content[i], services.Content[i+1]
		h := infraHit(key.Value, "compose service", architecture.ConnHosts)
		h.Symbol = key.Value
		if img := mappingValue(body, "image"); img != nil && img.Value != "" {
			h.Tags = []string{"image:" + imageName(img.Value)}
			imageSignatures(in, src, acc, catalog, img.Value, img.Line)
		}
		h, ok := record(in, src, acc, h, key.Line, infraBase)
		if !ok {
			continue
		}
		kept[key.Value] = service{hit: h, dependsOn: dependencyNames(mappingValue(body, "depends_on"))}
	}

	for name, svc := range kept {
		for _, dep := range svc.dependsOn {
			target, ok := kept[dep.Value]
			if !ok {
				continue
			}
			from, to := svc.hit.ComponentID(), target.hit.ComponentID()
			acc.AddConnection(&architecture.Connection{
				ID: architecture.ConnectionID(from, to, architecture.ConnDependsOn, src.Path),
				From: architecture.Endpoint{
					ComponentID: from,
					Location:    &architecture.Location{File: src.Path, Line: dep.Line},
				},
				To:   architecture.Endpoint{ComponentID: to},
				Type: architecture.ConnDependsOn,
				CodeReference: architecture.CodeReference{
					File:      src.Path,
					Symbol:    name,
					LineStart: dep.Line,
					LineEnd:   dep.Line,
					Snippet:   detect.Snippet(src.Line(dep.Line)),
				},
				Description:  fmt.Sprintf("%s depends on %s", name, dep.Value),
				DetectedFrom: methodInfra,
				Confidence:   min(svc.hit.Confidence, target.hit.Confidence),
				Semantic:     &architecture.Semantic{Classification: architecture.ClassifyPath(src.Path)},
				CreatedAt:    in.Now,
				UpdatedAt:    in.Now,
			})
		}
	}
}

func documentRoot(n *yaml.Node) *yaml.Node {
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		return n.Content[0]
	}
	return n
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

// dependencyNames accepts both the list and the long mapping form of depends_on
func dependencyNames(n *yaml.Node) []*yaml.Node {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case yaml.SequenceNode:
		return n.Content
	case yaml.MappingNode:
		var keys []*yaml.Node
		for i := 0; i < len(n.Content); i += 2 {
			keys = append(keys, n.Content[i])
		}
		return keys
	}
	return nil
}

var tfResource = regexp.MustCompile(`^\s*resource\s+"([\w-]+)"\s+"([\w-]+)"`)

// terraformKinds maps resource type prefixes to a signature name or an
// infra component. Longer prefixes are listed first.
var terraformKinds = []struct {
	prefix    string
	signature string
	infra     string
	purpose   string
}{
	{prefix: "aws_db_instance", infra: "aws-rds", purpose: "managed relational database"},
	{prefix: "aws_rds_cluster", infra: "aws-rds", purpose: "managed relational database"},
	{prefix: "aws_dynamodb_", signature: "dynamodb"},
	{prefix: "aws_s3_bucket", signature: "aws-s3"},
	{prefix: "aws_sqs_", signature: "aws-sqs"},
	{prefix: "aws_elasticache_", signature: "redis"},
	{prefix: "aws_lambda_function", infra: "aws-lambda", purpose: "serverless functions"},
	{prefix: "aws_ecs_", infra: "aws-ecs", purpose: "container orchestration"},
	{prefix: "aws_eks_", infra: "aws-eks", purpose: "kubernetes cluster"},
	{prefix: "aws_", infra: "aws", purpose: "cloud provider"},
	{prefix: "google_sql_", infra: "cloud-sql", purpose: "managed relational database"},
	{prefix: "google_pubsub_", signature: "google-pubsub"},
	{prefix: "google_cloud_run_", infra: "cloud-run", purpose: "serverless containers"},
	{prefix: "google_container_cluster", infra: "gke", purpose: "kubernetes cluster"},
	{prefix: "google_", infra: "gcp", purpose: "cloud provider"},
	{prefix: "azurerm_", infra: "azure", purpose: "cloud provider"},
	{prefix: "kubernetes_", infra: "kubernetes", purpose: "container orchestration"},
	{prefix: "cloudflare_", infra: "cloudflare", purpose: "edge network"},
}

func scanTerraform(in *detect.Input, src *confidence.Source, catalog []*Signature, acc *detect.Accumulator) {
	byName := make(map[string]*Signature, len(catalog))
	for _, sig := range catalog {
		byName[sig.Name] = sig
	}
	for i, line := range src.Lines {
		m := tfResource.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		for _, k := range terraformKinds {
			if !strings.HasPrefix(m[1], k.prefix) {
				continue
			}
			var h detect.Hit
			if sig, ok := byName[k.signature]; ok {
				h = sig.hit(methodInfra, architecture.ConnHosts)
			} else {
				h = infraHit(k.infra, k.purpose, architecture.ConnHosts)
			}
			h.Symbol = m[1] + "." + m[2]
			record(in, src, acc, h, i+1, infraBase)
			break
		}
	}
}

var workflowUses = regexp.MustCompile(`^\s*(?:-\s*)?uses:\s*([\w.-]+/[\w.-]+)`)

func scanWorkflow(in *detect.Input, src *confidence.Source, acc *detect.Accumulator) {
	h := infraHit("github-actions", "ci/cd pipeline", architecture.ConnDependsOn)
	h.Symbol = path.Base(src.Path)
	line := 1
	var actions []string
	for i, l := range src.Lines {
		if strings.HasPrefix(strings.TrimSpace(l), "on:") && line == 1 {
			line = i + 1
		}
		if m := workflowUses.FindStringSubmatch(l); m != nil {
			actions = append(actions, m[1])
		}
	}
	if len(actions) > 0 {
		h.Metadata = map[string]interface{}{"actions": actions}
	}
	record(in, src, acc, h, line, infraBase)
}
