package connect

import (
	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/types/known/structpb"
)

func errMissingField(name string) error {
	return errors.Newf("missing field: %s", name)
}

// requireGuildID reads the mandatory guild_id field.
func requireGuildID(msg *structpb.Struct) (string, error) {
	guildID := stringField(msg, "guild_id")
	if guildID == "" {
		return "", connect.NewError(connect.CodeInvalidArgument, errMissingField("guild_id"))
	}
	return guildID, nil
}

// structResponse wraps fields in a response message.
func structResponse(fields map[string]any) (*connect.Response[structpb.Struct], error) {
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, errors.Wrap(err, "failed to encode response"))
	}
	return connect.NewResponse(msg), nil
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
