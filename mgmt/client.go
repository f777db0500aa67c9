package mgmt

import (
	"context"

	"domain-mgmt/codec"
	"domain-mgmt/model"
)

// Client is the domain controller's handle on one remote server manager.
// It is safe for concurrent use: the target and codec are immutable, and
// every call runs its own exchange over its own connection (or lease).
type Client struct {
	target Target
	codec  codec.Codec
	dialer Dialer
}

// NewClient creates a client for the given target. Pass a nil dialer for the
// connection-per-call default, or a ConnPool bound to the same target for
// keep-alive reuse.
func NewClient(target Target, codecType codec.CodecType, dialer Dialer) *Client {
	if dialer == nil {
		dialer = NetDialer{}
	}
	return &Client{
		target: target.Normalize(),
		codec:  codec.GetCodec(codecType),
		dialer: dialer,
	}
}

// Target returns the immutable connection target this client is bound to.
func (c *Client) Target() Target {
	return c.target
}

// UpdateFullDomain pushes the complete domain model to the server manager.
// All-or-nothing: any failure — transport, protocol, or peer — surfaces as a
// ManagementError, and the caller cannot assume anything was applied.
func (c *Client) UpdateFullDomain(ctx context.Context, domain model.DomainModel) error {
	_, err := Execute(ctx, c.dialer, c.target, &updateFullDomainRequest{codec: c.codec, model: domain})
	if err != nil {
		return &ManagementError{Op: "update domain", Err: err}
	}
	return nil
}

// UpdateDomainModel applies a batch of domain-scoped updates and returns one
// result per update, in transmission order. A failed item appears in its slot
// of the result list and never as a returned error; only transport, protocol
// and count failures are raised, and then no results are exposed at all.
func (c *Client) UpdateDomainModel(ctx context.Context, updates []model.DomainUpdate) ([]model.UpdateResult, error) {
	results, err := Execute(ctx, c.dialer, c.target, &updateDomainModelRequest{codec: c.codec, updates: updates})
	if err != nil {
		return nil, &ManagementError{Op: "update domain model", Err: err}
	}
	return results, nil
}

// UpdateHostModel applies a batch of host-scoped updates. Same result
// contract as UpdateDomainModel.
func (c *Client) UpdateHostModel(ctx context.Context, updates []model.HostUpdate) ([]model.UpdateResult, error) {
	results, err := Execute(ctx, c.dialer, c.target, &updateHostModelRequest{codec: c.codec, updates: updates})
	if err != nil {
		return nil, &ManagementError{Op: "update host model", Err: err}
	}
	return results, nil
}

// UpdateServerModel applies a batch of updates to one named server's model.
// Same result contract as UpdateDomainModel.
func (c *Client) UpdateServerModel(ctx context.Context, serverName string, updates []model.ServerUpdate) ([]model.UpdateResult, error) {
	results, err := Execute(ctx, c.dialer, c.target, &updateServerModelRequest{
		codec:      c.codec,
		serverName: serverName,
		updates:    updates,
	})
	if err != nil {
		return nil, &ManagementError{Op: "update server model", Err: err}
	}
	return results, nil
}

// IsActive reports whether a full liveness round trip to the server manager
// succeeds. Best-effort by definition: every failure, timeout included,
// collapses to false and nothing ever propagates.
func (c *Client) IsActive(ctx context.Context) bool {
	active, err := Execute(ctx, c.dialer, c.target, isActiveRequest{})
	return err == nil && active
}
