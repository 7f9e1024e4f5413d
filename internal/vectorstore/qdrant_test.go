package vectorstore

import (
	"net/url"
	"strconv"
	"testing"

	"github.com/qdrant/go-client/qdrant"
)

// TestNewQdrantStore_URLParsing tests URL parsing logic without creating a real client.
func TestNewQdrantStore_URLParsing(t *testing.T) {
	tests := []struct {
		name     string
		urlStr   string
		wantErr  bool
		wantHost string
		wantPort int
	}{
		{
			name:     "valid URL",
			urlStr:   "http://localhost:6333",
			wantErr:  false,
			wantHost: "localhost",
			wantPort: 6334, // gRPC port is HTTP port + 1
		},
		{
			name:     "URL with custom port",
			urlStr:   "http://localhost:9000",
			wantErr:  false,
			wantHost: "localhost",
			wantPort: 9001,
		},
		{
			name:    "invalid URL",
			urlStr:  "://invalid",
			wantErr: true,
		},
		{
			name:     "URL without port",
			urlStr:   "http://localhost",
			wantErr:  false,
			wantHost: "localhost",
			wantPort: 6334, // Default
		},
		{
			name:     "URL without hostname",
			urlStr:   "http://:6333",
			wantErr:  false,
			wantHost: "localhost", // Defaults to localhost
			wantPort: 6334,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsedURL, err := url.Parse(tt.urlStr)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected parse error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("url.Parse() error = %v", err)
			}

			host := parsedURL.Hostname()
			if host == "" {
				host = "localhost"
			}
			port := 6334
			if parsedURL.Port() != "" {
				httpPort, err := strconv.Atoi(parsedURL.Port())
				if err == nil {
					port = httpPort + 1
				}
			}

			if host != tt.wantHost {
				t.Errorf("host = %q, want %q", host, tt.wantHost)
			}
			if port != tt.wantPort {
				t.Errorf("port = %d, want %d", port, tt.wantPort)
			}
		})
	}
}

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]*qdrant.Value
		want    Payload
		wantErr bool
	}{
		{
			name: "complete payload",
			payload: map[string]*qdrant.Value{
				"text":        {Kind: &qdrant.Value_StringValue{StringValue: "snippet text"}},
				"source":      {Kind: &qdrant.Value_StringValue{StringValue: "s3://bucket/doc.pdf"}},
				"file":        {Kind: &qdrant.Value_StringValue{StringValue: "doc.pdf"}},
				"chunk_index": {Kind: &qdrant.Value_IntegerValue{IntegerValue: 3}},
			},
			want: Payload{
				Text:       "snippet text",
				Source:     "s3://bucket/doc.pdf",
				File:       "doc.pdf",
				ChunkIndex: 3,
			},
		},
		{
			name: "text only",
			payload: map[string]*qdrant.Value{
				"text": {Kind: &qdrant.Value_StringValue{StringValue: "just text"}},
			},
			want: Payload{Text: "just text"},
		},
		{
			name:    "missing text",
			payload: map[string]*qdrant.Value{},
			wantErr: true,
		},
		{
			name: "text has wrong type",
			payload: map[string]*qdrant.Value{
				"text": {Kind: &qdrant.Value_IntegerValue{IntegerValue: 42}},
			},
			wantErr: true,
		},
		{
			name: "chunk_index has wrong type",
			payload: map[string]*qdrant.Value{
				"text":        {Kind: &qdrant.Value_StringValue{StringValue: "t"}},
				"chunk_index": {Kind: &qdrant.Value_StringValue{StringValue: "3"}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePayload(tt.payload)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePayload() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got != tt.want {
				t.Errorf("parsePayload() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
