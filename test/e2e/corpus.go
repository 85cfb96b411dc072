// Package e2e provides end-to-end tests over a foldered corpus and a set of questions.
package e2e

import (
	"fmt"
	"strings"
)

// E2EDocument is one file of the E2E corpus.
type E2EDocument struct {
	Folder   string
	Filename string // without extension
	Title    string
	Content  string
}

// Text is what gets written to disk for the document.
func (d E2EDocument) Text() string {
	return d.Title + "\n\n" + d.Content
}

// QueryTestCase is a query and the document whose chunk must be retrieved for it.
type QueryTestCase struct {
	Query          string
	ExpectedFolder string
	ExpectedFile   string // without extension
	Description    string
}

// Corpus holds documents and query test cases for E2E tests.
type Corpus struct {
	Documents    []E2EDocument
	TestCases    []QueryTestCase
	Folders      []string
	TotalDocs    int
	TotalQueries int
}

type topic struct {
	title   string
	phrase  string
	content string
}

type folderTopics struct {
	folder string
	topics []topic
}

var corpusTopics = []folderTopics{
	{"languages", []topic{
		{"Python Guide", "Python programming language", "Python is a high-level language. Python programming language is used for web development and data science."},
		{"Go Language", "golang concurrency goroutines", "Go is statically typed. Golang concurrency goroutines and channels make servers simple to write."},
		{"TypeScript Handbook", "TypeScript type system", "TypeScript adds static types to JavaScript. The TypeScript type system catches errors at compile time."},
		{"Object Orientation", "object-oriented programming", "Object-oriented programming organizes code around objects with encapsulation and inheritance."},
		{"Functional Style", "functional programming paradigm", "The functional programming paradigm treats computation as pure functions and avoids mutable state."},
		{"Async Code", "async programming await", "Async programming await keywords avoid blocking threads while waiting on input and output."},
	}},
	{"infrastructure", []topic{
		{"Kubernetes Docs", "Kubernetes orchestration", "Kubernetes is an open-source platform. Kubernetes orchestration automates deployment and scaling of pods."},
		{"Docker Handbook", "Docker container images", "Docker builds and ships applications. Docker container images are portable across environments."},
		{"Terraform IaC", "Terraform infrastructure", "Terraform manages cloud resources. Terraform infrastructure definitions are declarative and versioned."},
		{"Nginx Config", "Nginx reverse proxy", "Nginx is a web server. The Nginx reverse proxy balances load and serves static files."},
		{"AWS Lambda", "AWS Lambda serverless", "AWS Lambda runs code without servers. AWS Lambda serverless functions scale automatically."},
		{"Service Mesh", "service mesh Istio", "A service mesh manages service traffic. Service mesh Istio provides mutual TLS and observability."},
	}},
	{"data", []topic{
		{"PostgreSQL Manual", "PostgreSQL relational database", "PostgreSQL is an advanced relational database. PostgreSQL supports JSON columns and full-text search."},
		{"Redis Cache", "Redis in-memory cache", "Redis is an in-memory data store. The Redis in-memory cache holds sessions and hot keys."},
		{"Kafka Streams", "Apache Kafka streaming", "Apache Kafka is a distributed event platform. Apache Kafka streaming handles high throughput topics."},
		{"Graph Database", "graph database Neo4j", "Graph databases store nodes and edges. The graph database Neo4j models relationships."},
		{"Time Series", "time-series metrics storage", "Time-series databases optimize for timestamps. Time-series metrics storage compresses samples."},
		{"ACID Transactions", "ACID transactions", "ACID transactions guarantee atomicity, isolation and durability for relational writes."},
	}},
	{"ai", []topic{
		{"Machine Learning", "machine learning algorithms", "Machine learning is a subset of AI. Machine learning algorithms learn patterns from labeled data."},
		{"Neural Networks", "neural network deep learning", "Neural networks are inspired by the brain. Neural network deep learning powers modern vision models."},
		{"Embedding Models", "embedding models", "Embedding models turn a sentence into dense vectors that capture meaning."},
		{"RAG Overview", "retrieval augmented generation", "Retrieval augmented generation grounds language models in documents found by search."},
		{"Prompt Engineering", "prompt engineering few-shot", "Prompts guide model behavior. Prompt engineering few-shot examples are placed inside the prompt."},
		{"Semantic Search", "semantic search", "Semantic search ranks by meaning rather than exact keywords using vector similarity."},
	}},
	{"api", []topic{
		{"REST API Design", "REST API endpoints", "REST is an architectural style. REST API endpoints use HTTP methods and status codes."},
		{"GraphQL Overview", "GraphQL query language", "GraphQL is a query language for APIs. The GraphQL query language lets clients select fields."},
		{"gRPC Overview", "gRPC remote procedure calls", "gRPC is a high-performance framework. gRPC remote procedure calls use HTTP/2 and protobuf."},
		{"OpenAPI Spec", "OpenAPI specification", "OpenAPI describes HTTP interfaces. An OpenAPI specification is machine-readable YAML or JSON."},
		{"WebSocket Protocol", "WebSocket real-time", "WebSockets enable bidirectional communication. WebSocket real-time channels power chat."},
		{"Rate Limiting", "rate limiting throttling", "Rate limiting protects services. Rate limiting throttling can be applied per user or globally."},
	}},
	{"security", []topic{
		{"OAuth Flows", "OAuth authorization grants", "OAuth is an authorization framework. OAuth authorization grants allow delegated access."},
		{"JWT Tokens", "JWT JSON web tokens", "JWT is a compact token format. JWT JSON web tokens carry signed claims for authentication."},
		{"Cryptography Basics", "cryptography encryption decryption", "Cryptography secures data. Cryptography encryption decryption relies on keys and ciphers."},
		{"Password Hashing", "password hashing bcrypt", "Passwords must never be stored in plain text. Password hashing bcrypt resists rainbow tables."},
		{"Zero Trust", "zero trust verification", "Zero trust assumes breach. Zero trust verification checks every request regardless of network."},
		{"Mutual TLS", "mTLS client certificates", "mTLS authenticates both sides of a connection. mTLS client certificates identify services."},
	}},
	{"operations", []topic{
		{"Prometheus Metrics", "Prometheus monitoring", "Prometheus is a monitoring system. Prometheus monitoring scrapes time-series metrics from targets."},
		{"Distributed Tracing", "distributed tracing spans", "Tracing follows requests across services. Distributed tracing spans show latency breakdowns."},
		{"Incident Response", "incident response runbook", "Incidents need a clear process. An incident response runbook defines roles and steps."},
		{"Post-Mortem", "post-mortem blameless", "Post-mortems learn from outages. A post-mortem blameless review focuses on systems not people."},
		{"Chaos Engineering", "chaos engineering fault injection", "Chaos engineering tests resilience. Chaos engineering fault injection breaks things on purpose."},
		{"Graceful Shutdown", "graceful shutdown SIGTERM", "Graceful shutdown drains connections. Graceful shutdown SIGTERM handling lets requests finish."},
	}},
	{"testing", []topic{
		{"Unit Testing", "unit testing mocks", "Unit tests verify small pieces of code. Unit testing mocks isolate dependencies."},
		{"Contract Testing", "contract testing consumer provider", "Contract tests verify interfaces. Contract testing consumer provider pairs stay aligned."},
		{"Fuzz Testing", "fuzz testing random inputs", "Fuzzing feeds unexpected data. Fuzz testing random inputs uncovers crashes and edge cases."},
		{"Load Testing", "load testing capacity", "Load tests simulate heavy traffic. Load testing capacity planning finds the breaking point."},
		{"Regression Suites", "regression suite bugs", "Regression tests stop old bugs returning. A regression suite bugs list grows over time."},
		{"Smoke Tests", "smoke test deployment sanity", "Smoke tests check basic functionality. A smoke test deployment sanity check runs after release."},
	}},
}

// BuildCorpus returns the E2E corpus: eight folders of six documents, one query per document.
// Each document carries a signature phrase used as its query.
func BuildCorpus() *Corpus {
	var docs []E2EDocument
	var cases []QueryTestCase
	var folders []string
	for _, ft := range corpusTopics {
		folders = append(folders, ft.folder)
		for _, t := range ft.topics {
			d := E2EDocument{
				Folder:   ft.folder,
				Filename: slug(t.title),
				Title:    t.title,
				Content:  t.content,
			}
			docs = append(docs, d)
			cases = append(cases, QueryTestCase{
				Query:          t.phrase,
				ExpectedFolder: d.Folder,
				ExpectedFile:   d.Filename,
				Description:    fmt.Sprintf("query %q should retrieve %s/%s", t.phrase, d.Folder, d.Filename),
			})
		}
	}
	return &Corpus{
		Documents:    docs,
		TestCases:    cases,
		Folders:      folders,
		TotalDocs:    len(docs),
		TotalQueries: len(cases),
	}
}

func slug(title string) string {
	s := strings.ToLower(title)
	s = strings.NewReplacer(" ", "_", "-", "_", "/", "_").Replace(s)
	return s
}

func containsPhrase(d E2EDocument, phrase string) bool {
	return strings.Contains(strings.ToLower(d.Text()), strings.ToLower(phrase))
}
