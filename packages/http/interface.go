package http

import "context"

// Requester is the verb surface of the client. Verb methods return the
// decoded body; the Response variants return the full envelope.
type Requester interface {
	Get(ctx context.Context, url string, cfg *Config) (any, error)
	Post(ctx context.Context, url string, cfg *Config) (any, error)
	Put(ctx context.Context, url string, cfg *Config) (any, error)
	Delete(ctx context.Context, url string, cfg *Config) (any, error)

	GetResponse(ctx context.Context, url string, cfg *Config) (*Response, error)
	PostResponse(ctx context.Context, url string, cfg *Config) (*Response, error)
	PutResponse(ctx context.Context, url string, cfg *Config) (*Response, error)
	DeleteResponse(ctx context.Context, url string, cfg *Config) (*Response, error)
}
