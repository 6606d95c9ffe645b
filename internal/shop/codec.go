package shop

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/storefront/internal/auth"
	"github.com/roach88/storefront/internal/cart"
	"github.com/roach88/storefront/internal/catalog"
	"github.com/roach88/storefront/internal/engine"
	"github.com/roach88/storefront/internal/ir"
	"github.com/roach88/storefront/internal/promise"
)

// ErrUnknownCommand is returned for a wire tag outside the vocabulary.
var ErrUnknownCommand = errors.New("shop: unknown command type")

// DecodeCommand builds a command from its wire tag and payload fields.
//
// Field names follow the wire format: token (AUTH_LOGIN); name, status,
// payload, error (PROMISE); good, count (CART_*). A PROMISE error is a
// message string.
func DecodeCommand(typ string, fields ir.Object) (engine.Command, error) {
	switch typ {
	case auth.TypeLogin:
		return auth.Login{Token: fields.GetString("token")}, nil

	case auth.TypeLogout:
		return auth.Logout{}, nil

	case promise.CommandType:
		lc := promise.Lifecycle{
			Name:   fields.GetString("name"),
			Status: promise.Status(fields.GetString("status")),
		}
		if lc.Name == "" {
			return nil, fmt.Errorf("%s: name is required", typ)
		}
		switch lc.Status {
		case promise.StatusPending, promise.StatusFulfilled, promise.StatusRejected:
		default:
			return nil, fmt.Errorf("%s: invalid status %q", typ, lc.Status)
		}
		if p, ok := fields["payload"]; ok {
			lc.Payload = p
		}
		if msg := fields.GetString("error"); msg != "" {
			lc.Err = errors.New(msg)
		}
		return lc, nil

	case cart.TypeAdd, cart.TypeChange, cart.TypeDelete:
		good, err := decodeGood(fields["good"])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", typ, err)
		}
		count, hasCount := fields.GetInt("count")
		switch typ {
		case cart.TypeAdd:
			return cart.Add{Good: good, Count: int(count)}, nil
		case cart.TypeChange:
			if !hasCount {
				return nil, fmt.Errorf("%s: count is required", typ)
			}
			return cart.Change{Good: good, Count: int(count)}, nil
		default:
			return cart.Delete{Good: good}, nil
		}

	case cart.TypeClear:
		return cart.Clear{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, typ)
}

// EncodeCommand is the inverse of DecodeCommand.
func EncodeCommand(cmd engine.Command) (string, ir.Object, error) {
	switch c := cmd.(type) {
	case auth.Login:
		return c.Type(), ir.NewObject(ir.O("token", ir.String(c.Token))), nil

	case auth.Logout, cart.Clear:
		return c.Type(), ir.Object{}, nil

	case promise.Lifecycle:
		fields := ir.NewObject(
			ir.O("name", ir.String(c.Name)),
			ir.O("status", ir.String(c.Status)),
		)
		if c.Payload != nil {
			v, err := encodeJSON(c.Payload)
			if err != nil {
				return "", nil, fmt.Errorf("%s payload: %w", c.Type(), err)
			}
			fields["payload"] = v
		}
		if c.Err != nil {
			fields["error"] = ir.String(c.Err.Error())
		}
		return c.Type(), fields, nil

	case cart.Add:
		return encodeCartCommand(c.Type(), c.Good, c.Count)
	case cart.Change:
		return encodeCartCommand(c.Type(), c.Good, c.Count)
	case cart.Delete:
		typ, fields, err := encodeCartCommand(c.Type(), c.Good, 0)
		delete(fields, "count")
		return typ, fields, err
	}
	return "", nil, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type())
}

func encodeCartCommand(typ string, good catalog.Good, count int) (string, ir.Object, error) {
	g, err := encodeJSON(good)
	if err != nil {
		return "", nil, fmt.Errorf("%s good: %w", typ, err)
	}
	return typ, ir.NewObject(ir.O("good", g), ir.O("count", ir.Int(count))), nil
}

func decodeGood(v ir.Value) (catalog.Good, error) {
	obj, ok := v.(ir.Object)
	if !ok {
		return catalog.Good{}, errors.New("good must be an object")
	}
	data, err := ir.MarshalValue(obj)
	if err != nil {
		return catalog.Good{}, err
	}
	var good catalog.Good
	if err := json.Unmarshal(data, &good); err != nil {
		return catalog.Good{}, fmt.Errorf("decode good: %w", err)
	}
	if good.ID == "" {
		return catalog.Good{}, errors.New("good._id is required")
	}
	return good, nil
}

func encodeJSON(v any) (ir.Value, error) {
	if val, err := ir.FromAny(v); err == nil {
		return val, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return ir.UnmarshalValue(data)
}
