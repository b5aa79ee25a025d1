package qcfractal

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ClientConfig はクライアント設定ファイル（client_config.yaml）の構造
type ClientConfig struct {
	Address  string `yaml:"address"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Verify   *bool  `yaml:"verify"`
}

// FractalClient は Client のHTTP実装
type FractalClient struct {
	address    string
	username   string
	password   string
	httpClient *http.Client
}

var _ Client = (*FractalClient)(nil)

// FromFile はYAML設定ファイルからクライアントを構築します
func FromFile(path string) (*FractalClient, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("クライアント設定の読み込みに失敗: %w", err)
	}

	var cfg ClientConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("クライアント設定のパースに失敗: %w", err)
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("クライアント設定 %s に address がありません", path)
	}

	return New(cfg), nil
}

// New は設定からクライアントを構築します
func New(cfg ClientConfig) *FractalClient {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Verify != nil && !*cfg.Verify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &FractalClient{
		address:  strings.TrimRight(cfg.Address, "/"),
		username: cfg.Username,
		password: cfg.Password,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   60 * time.Second,
		},
	}
}

// queryBody はサーバのクエリエンドポイント共通のリクエスト形式
type queryBody struct {
	Meta map[string]any `json:"meta,omitempty"`
	Data map[string]any `json:"data"`
}

func (c *FractalClient) post(ctx context.Context, endpoint string, body queryBody, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("リクエストのエンコードに失敗: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.address+"/"+endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("リクエストの作成に失敗: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("サーバへの接続に失敗 (%s): %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("サーバがエラーを返しました (%s): %s", endpoint, resp.Status)
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("レスポンスのパースに失敗 (%s): %w", endpoint, err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("レスポンスデータのパースに失敗 (%s): %w", endpoint, err)
	}
	return nil
}

// GetCollection は名前付きコレクションを取得します
func (c *FractalClient) GetCollection(ctx context.Context, collectionType, name string) (*Dataset, error) {
	body := queryBody{
		Data: map[string]any{
			"collection": collectionType,
			"name":       name,
		},
	}
	var ds Dataset
	if err := c.post(ctx, "collection", body, &ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

// QueryProcedures はプロシージャレコードをIDリストで一括取得します
func (c *FractalClient) QueryProcedures(ctx context.Context, ids []string) ([]*ProcedureRecord, error) {
	body := queryBody{
		Data: map[string]any{"id": ids},
	}
	var records []*ProcedureRecord
	if err := c.post(ctx, "procedure", body, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// QueryServices はサービスレコードをプロシージャIDリストで一括取得します
func (c *FractalClient) QueryServices(ctx context.Context, procedureIDs []string, projection []string) ([]*ServiceRecord, error) {
	meta := map[string]any{}
	if len(projection) > 0 {
		fields := make(map[string]bool, len(projection))
		for _, f := range projection {
			fields[f] = true
		}
		meta["projection"] = fields
	}

	body := queryBody{
		Meta: meta,
		Data: map[string]any{"procedure_id": procedureIDs},
	}
	var records []*ServiceRecord
	if err := c.post(ctx, "service_queue", body, &records); err != nil {
		return nil, err
	}
	return records, nil
}
