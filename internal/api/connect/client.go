package connect

import (
	"context"
	"strings"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls GuildService and AdminService procedures.
type Client struct {
	httpClient connect.HTTPClient
	baseURL    string
	adminToken string
}

// NewClient creates a new client for the server at baseURL.
// adminToken is sent with every call and may be empty for GuildService calls.
func NewClient(httpClient connect.HTTPClient, baseURL, adminToken string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		adminToken: adminToken,
	}
}

// Call invokes a unary procedure with the given request fields.
func (c *Client) Call(ctx context.Context, procedure string, fields map[string]any) (*structpb.Struct, error) {
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode request")
	}

	client := connect.NewClient[structpb.Struct, structpb.Struct](c.httpClient, c.baseURL+procedure)
	req := connect.NewRequest(msg)
	if c.adminToken != "" {
		req.Header().Set(AdminTokenHeader, c.adminToken)
	}

	resp, err := client.CallUnary(ctx, req)
	if err != nil {
		return nil, errors.Wrapf(err, "call %s failed", procedure)
	}
	return resp.Msg, nil
}

// Subscribe streams notifications of guildID (empty for every guild) to fn until ctx ends,
// the server closes the stream or fn returns an error.
func (c *Client) Subscribe(ctx context.Context, guildID string, fn func(*structpb.Struct) error) error {
	msg, err := structpb.NewStruct(map[string]any{"guild_id": guildID})
	if err != nil {
		return errors.Wrap(err, "failed to encode request")
	}

	client := connect.NewClient[structpb.Struct, structpb.Struct](c.httpClient, c.baseURL+SubscribeNotificationsProcedure)
	stream, err := client.CallServerStream(ctx, connect.NewRequest(msg))
	if err != nil {
		return errors.Wrap(err, "subscribe failed")
	}
	defer stream.Close()

	for stream.Receive() {
		if err := fn(stream.Msg()); err != nil {
			return err
		}
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		return errors.Wrap(err, "notification stream failed")
	}
	return nil
}
