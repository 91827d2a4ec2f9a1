package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	// Supported sink types.
	TypeQueue = "queue"
	TypeHTTP  = "http"

	// Supported queue providers.
	QueueProviderAWSSQS = "aws-sqs"
	QueueProviderAWSSNS = "aws-sns"
	QueueProviderGCP    = "gcp"

	httpDefaultMethod  = "POST"
	httpDefaultTimeout = 5
)

type sinksFile struct {
	Sinks []SinkConfig `json:"sinks" yaml:"sinks"`
}

// SinkConfig is one refresh-event destination declared in the sinks file.
type SinkConfig struct {
	ID      string           `json:"id" yaml:"id"`
	Type    string           `json:"type" yaml:"type"`
	Enabled *bool            `json:"enabled" yaml:"enabled"`
	Queue   *QueueSinkConfig `json:"queue" yaml:"queue"`
	HTTP    *HTTPSinkConfig  `json:"http" yaml:"http"`
}

// QueueSinkConfig selects a cloud queue provider.
type QueueSinkConfig struct {
	Provider string     `json:"provider" yaml:"provider"`
	SQS      *SQSConfig `json:"sqs" yaml:"sqs"`
	SNS      *SNSConfig `json:"sns" yaml:"sns"`
	GCP      *GCPConfig `json:"gcp" yaml:"gcp"`
}

// AWSCredentials are optional static keys. When both are empty the default
// AWS credential chain is used.
type AWSCredentials struct {
	Region          string `json:"region" yaml:"region"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

// SQSConfig addresses one SQS queue.
type SQSConfig struct {
	AWSCredentials `yaml:",inline"`
	QueueURL       string `json:"queue_url" yaml:"queue_url"`
}

// SNSConfig addresses one SNS topic.
type SNSConfig struct {
	AWSCredentials `yaml:",inline"`
	TopicARN       string `json:"topic_arn" yaml:"topic_arn"`
}

// GCPConfig addresses one Pub/Sub topic.
type GCPConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// HTTPSinkConfig posts events as JSON to a webhook.
type HTTPSinkConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// IsEnabled reports the enabled flag, defaulting to true.
func (cfg SinkConfig) IsEnabled() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}

// ConfigRegistry holds the sink definitions loaded from a file.
type ConfigRegistry struct {
	mu    sync.RWMutex
	sinks []SinkConfig
	idx   map[string]int
}

// LoadRegistry reads sink definitions from a YAML or JSON file.
// ${VAR} references are expanded from the environment before decoding.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sinks file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sinks file: %w", err)
	}

	file, err := decodeSinks([]byte(os.ExpandEnv(string(raw))), filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return NewConfigRegistry(file.Sinks)
}

// NewConfigRegistry normalizes and validates sink definitions.
func NewConfigRegistry(sinks []SinkConfig) (*ConfigRegistry, error) {
	if len(sinks) == 0 {
		return nil, errors.New("no sinks declared")
	}

	reg := &ConfigRegistry{
		sinks: make([]SinkConfig, 0, len(sinks)),
		idx:   make(map[string]int, len(sinks)),
	}
	for i, s := range sinks {
		cfg := normalizeSink(s)
		if err := validateSink(cfg); err != nil {
			return nil, fmt.Errorf("sinks[%d]: %w", i, err)
		}
		if _, dup := reg.idx[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate sink id %q", cfg.ID)
		}
		reg.idx[cfg.ID] = len(reg.sinks)
		reg.sinks = append(reg.sinks, cfg)
	}
	return reg, nil
}

func decodeSinks(data []byte, ext string) (sinksFile, error) {
	var file sinksFile
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &file); err != nil {
			return sinksFile{}, fmt.Errorf("decode json sinks: %w", err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return sinksFile{}, fmt.Errorf("decode yaml sinks: %w", err)
		}
	default:
		return sinksFile{}, fmt.Errorf("sinks file extension %q not supported (expected .yaml, .yml or .json)", ext)
	}
	return file, nil
}

func normalizeSink(cfg SinkConfig) SinkConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))

	if cfg.Queue != nil {
		q := *cfg.Queue
		q.Provider = strings.ToLower(strings.TrimSpace(q.Provider))
		if q.SQS != nil {
			s := *q.SQS
			s.AWSCredentials = trimCredentials(s.AWSCredentials)
			s.QueueURL = strings.TrimSpace(s.QueueURL)
			q.SQS = &s
		}
		if q.SNS != nil {
			s := *q.SNS
			s.AWSCredentials = trimCredentials(s.AWSCredentials)
			s.TopicARN = strings.TrimSpace(s.TopicARN)
			q.SNS = &s
		}
		if q.GCP != nil {
			g := *q.GCP
			g.ProjectID = strings.TrimSpace(g.ProjectID)
			g.Topic = strings.TrimSpace(g.Topic)
			g.CredentialsFile = strings.TrimSpace(g.CredentialsFile)
			q.GCP = &g
		}
		cfg.Queue = &q
	}

	if cfg.HTTP != nil {
		h := *cfg.HTTP
		h.URL = strings.TrimSpace(h.URL)
		h.Method = strings.ToUpper(strings.TrimSpace(h.Method))
		if h.Method == "" {
			h.Method = httpDefaultMethod
		}
		if h.TimeoutSeconds <= 0 {
			h.TimeoutSeconds = httpDefaultTimeout
		}
		headers := make(map[string]string, len(h.Headers))
		for k, v := range h.Headers {
			if k, v = strings.TrimSpace(k), strings.TrimSpace(v); k != "" && v != "" {
				headers[k] = v
			}
		}
		h.Headers = headers
		cfg.HTTP = &h
	}
	return cfg
}

func trimCredentials(c AWSCredentials) AWSCredentials {
	c.Region = strings.TrimSpace(c.Region)
	c.AccessKeyID = strings.TrimSpace(c.AccessKeyID)
	c.SecretAccessKey = strings.TrimSpace(c.SecretAccessKey)
	return c
}

func validateSink(cfg SinkConfig) error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}

	switch cfg.Type {
	case TypeQueue:
		if cfg.Queue == nil {
			return fmt.Errorf("sink %q: queue section is required", cfg.ID)
		}
		return validateQueue(cfg.ID, cfg.Queue)
	case TypeHTTP:
		if cfg.HTTP == nil || cfg.HTTP.URL == "" {
			return fmt.Errorf("sink %q: http.url is required", cfg.ID)
		}
		return nil
	case "":
		return fmt.Errorf("sink %q: type is required", cfg.ID)
	default:
		return fmt.Errorf("sink %q: type %q not supported", cfg.ID, cfg.Type)
	}
}

func validateQueue(id string, q *QueueSinkConfig) error {
	switch q.Provider {
	case QueueProviderAWSSQS:
		if q.SQS == nil || q.SQS.QueueURL == "" {
			return fmt.Errorf("sink %q: sqs.queue_url is required", id)
		}
		return validateCredentials(id, "sqs", q.SQS.AWSCredentials)
	case QueueProviderAWSSNS:
		if q.SNS == nil || q.SNS.TopicARN == "" {
			return fmt.Errorf("sink %q: sns.topic_arn is required", id)
		}
		return validateCredentials(id, "sns", q.SNS.AWSCredentials)
	case QueueProviderGCP:
		if q.GCP == nil || q.GCP.ProjectID == "" || q.GCP.Topic == "" {
			return fmt.Errorf("sink %q: gcp.project_id and gcp.topic are required", id)
		}
		return nil
	default:
		return fmt.Errorf("sink %q: queue provider %q not supported", id, q.Provider)
	}
}

func validateCredentials(id, section string, c AWSCredentials) error {
	if c.Region == "" {
		return fmt.Errorf("sink %q: %s.region is required", id, section)
	}
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return fmt.Errorf("sink %q: %s.access_key_id and %s.secret_access_key must be set together", id, section, section)
	}
	return nil
}

// ByID returns the sink with the given id.
func (r *ConfigRegistry) ByID(id string) (SinkConfig, bool) {
	if r == nil {
		return SinkConfig{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.idx[strings.TrimSpace(id)]
	if !ok {
		return SinkConfig{}, false
	}
	return r.sinks[i], true
}

// Enabled returns the enabled sinks in file order.
func (r *ConfigRegistry) Enabled() []SinkConfig {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]SinkConfig, 0, len(r.sinks))
	for _, s := range r.sinks {
		if s.IsEnabled() {
			out = append(out, s)
		}
	}
	return out
}
