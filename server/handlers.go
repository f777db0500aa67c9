package server

import (
	"context"
	"fmt"
	"io"

	"domain-mgmt/codec"
	"domain-mgmt/model"
	"domain-mgmt/protocol"
)

// The five operation handlers. Each reads its declared payload grammar from
// in, applies it to the store, then writes the response code and payload to
// out. Nothing is written until the request payload decoded cleanly, so a
// malformed request never produces a half-written response.

func (svr *Server) handleUpdateFullDomain(_ context.Context, in io.Reader, out io.Writer) error {
	if err := protocol.ExpectHeader(in, protocol.ParamDomainModel); err != nil {
		return err
	}
	data, err := protocol.ReadBlob(in)
	if err != nil {
		return fmt.Errorf("reading domain model: %w", err)
	}
	var domain model.DomainModel
	if err := svr.codec.Decode(data, &domain); err != nil {
		return fmt.Errorf("decoding domain model: %w", err)
	}

	svr.store.SetDomain(domain)

	return protocol.WriteByte(out, protocol.UpdateFullDomainResponse)
}

func (svr *Server) handleUpdateDomainModel(_ context.Context, in io.Reader, out io.Writer) error {
	updates, err := readUpdateBatch[model.DomainUpdate](in, svr.codec,
		protocol.ParamDomainModelUpdateCount, protocol.ParamDomainModelUpdate)
	if err != nil {
		return err
	}

	results := svr.store.ApplyDomainUpdates(updates)

	return writeResultBatch(out, svr.codec, protocol.UpdateDomainModelResponse, results)
}

func (svr *Server) handleUpdateHostModel(_ context.Context, in io.Reader, out io.Writer) error {
	updates, err := readUpdateBatch[model.HostUpdate](in, svr.codec,
		protocol.ParamHostModelUpdateCount, protocol.ParamHostModelUpdate)
	if err != nil {
		return err
	}

	results := svr.store.ApplyHostUpdates(updates)

	return writeResultBatch(out, svr.codec, protocol.UpdateHostModelResponse, results)
}

func (svr *Server) handleUpdateServerModel(_ context.Context, in io.Reader, out io.Writer) error {
	if err := protocol.ExpectHeader(in, protocol.ParamServerName); err != nil {
		return err
	}
	serverName, err := protocol.ReadString(in)
	if err != nil {
		return fmt.Errorf("reading server name: %w", err)
	}
	updates, err := readUpdateBatch[model.ServerUpdate](in, svr.codec,
		protocol.ParamServerModelUpdateCount, protocol.ParamServerModelUpdate)
	if err != nil {
		return err
	}

	results := svr.store.ApplyServerUpdates(serverName, updates)

	return writeResultBatch(out, svr.codec, protocol.UpdateServerModelResponse, results)
}

// handleIsActive: the response code is the whole answer.
func (svr *Server) handleIsActive(_ context.Context, _ io.Reader, out io.Writer) error {
	return protocol.WriteByte(out, protocol.IsActiveResponse)
}

// readUpdateBatch decodes the shared request batch grammar:
// [count-tag][int32 count] then per item [item-tag][encoded update].
func readUpdateBatch[U any](in io.Reader, c codec.Codec, countTag, itemTag byte) ([]U, error) {
	if err := protocol.ExpectHeader(in, countTag); err != nil {
		return nil, err
	}
	count, err := protocol.ReadInt(in)
	if err != nil {
		return nil, fmt.Errorf("reading update count: %w", err)
	}
	if count < 0 {
		return nil, fmt.Errorf("negative update count %d", count)
	}
	if count > protocol.MaxBatchItems {
		return nil, fmt.Errorf("announced update count %d exceeds limit", count)
	}

	updates := make([]U, 0, count)
	for i := int32(0); i < count; i++ {
		if err := protocol.ExpectHeader(in, itemTag); err != nil {
			return nil, err
		}
		data, err := protocol.ReadBlob(in)
		if err != nil {
			return nil, fmt.Errorf("reading update %d: %w", i, err)
		}
		var update U
		if err := c.Decode(data, &update); err != nil {
			return nil, fmt.Errorf("decoding update %d: %w", i, err)
		}
		updates = append(updates, update)
	}
	return updates, nil
}

// writeResultBatch emits [response-code][count-tag][int32 count] then per
// item [item-tag][encoded result], position-aligned with the request batch.
func writeResultBatch(out io.Writer, c codec.Codec, responseCode byte, results []model.UpdateResult) error {
	if err := protocol.WriteByte(out, responseCode); err != nil {
		return err
	}
	if err := protocol.WriteByte(out, protocol.ParamModelUpdateResponseCount); err != nil {
		return err
	}
	if err := protocol.WriteInt(out, int32(len(results))); err != nil {
		return err
	}
	for i, result := range results {
		data, err := c.Encode(result)
		if err != nil {
			return fmt.Errorf("encoding result %d: %w", i, err)
		}
		if err := protocol.WriteByte(out, protocol.ParamModelUpdateResponse); err != nil {
			return err
		}
		if err := protocol.WriteBlob(out, data); err != nil {
			return err
		}
	}
	return nil
}
