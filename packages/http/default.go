package http

import "context"

// DefaultClient backs the package-level request functions.
var DefaultClient = NewClient()

func Get(ctx context.Context, url string, cfg *Config) (any, error) {
	return DefaultClient.Get(ctx, url, cfg)
}

func Post(ctx context.Context, url string, cfg *Config) (any, error) {
	return DefaultClient.Post(ctx, url, cfg)
}

func Put(ctx context.Context, url string, cfg *Config) (any, error) {
	return DefaultClient.Put(ctx, url, cfg)
}

func Delete(ctx context.Context, url string, cfg *Config) (any, error) {
	return DefaultClient.Delete(ctx, url, cfg)
}

func GetResponse(ctx context.Context, url string, cfg *Config) (*Response, error) {
	return DefaultClient.GetResponse(ctx, url, cfg)
}

func PostResponse(ctx context.Context, url string, cfg *Config) (*Response, error) {
	return DefaultClient.PostResponse(ctx, url, cfg)
}

func PutResponse(ctx context.Context, url string, cfg *Config) (*Response, error) {
	return DefaultClient.PutResponse(ctx, url, cfg)
}

func DeleteResponse(ctx context.Context, url string, cfg *Config) (*Response, error) {
	return DefaultClient.DeleteResponse(ctx, url, cfg)
}
