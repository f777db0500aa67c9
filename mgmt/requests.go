package mgmt

import (
	"fmt"
	"io"

	"domain-mgmt/codec"
	"domain-mgmt/model"
	"domain-mgmt/protocol"
)

// The five request variants. Each is a pure description of one operation's
// payload shape — codes, captured arguments, encode, decode — with no other
// behavior.

// updateFullDomainRequest pushes the complete domain model. No response
// payload: success is the response code alone, all-or-nothing.
type updateFullDomainRequest struct {
	codec codec.Codec
	model model.DomainModel
}

func (r *updateFullDomainRequest) RequestCode() byte  { return protocol.UpdateFullDomainRequest }
func (r *updateFullDomainRequest) ResponseCode() byte { return protocol.UpdateFullDomainResponse }

func (r *updateFullDomainRequest) WritePayload(w io.Writer) error {
	data, err := r.codec.Encode(r.model)
	if err != nil {
		return fmt.Errorf("encoding domain model: %w", err)
	}
	if err := protocol.WriteByte(w, protocol.ParamDomainModel); err != nil {
		return err
	}
	return protocol.WriteBlob(w, data)
}

func (r *updateFullDomainRequest) ReadPayload(io.Reader) (struct{}, error) {
	return struct{}{}, nil
}

// isActiveRequest is the liveness probe. Completing the exchange — the
// response code arriving at all — is the affirmative signal; no payload
// travels in either direction.
type isActiveRequest struct{}

func (isActiveRequest) RequestCode() byte            { return protocol.IsActiveRequest }
func (isActiveRequest) ResponseCode() byte           { return protocol.IsActiveResponse }
func (isActiveRequest) WritePayload(io.Writer) error { return nil }

func (isActiveRequest) ReadPayload(io.Reader) (bool, error) {
	return true, nil
}

// updateDomainModelRequest sends a batch of domain-scoped updates.
type updateDomainModelRequest struct {
	codec   codec.Codec
	updates []model.DomainUpdate
}

func (r *updateDomainModelRequest) RequestCode() byte  { return protocol.UpdateDomainModelRequest }
func (r *updateDomainModelRequest) ResponseCode() byte { return protocol.UpdateDomainModelResponse }

func (r *updateDomainModelRequest) WritePayload(w io.Writer) error {
	return writeUpdateBatch(w, r.codec,
		protocol.ParamDomainModelUpdateCount, protocol.ParamDomainModelUpdate, r.updates)
}

func (r *updateDomainModelRequest) ReadPayload(rd io.Reader) ([]model.UpdateResult, error) {
	return readResultBatch(rd, r.codec, len(r.updates))
}

// updateHostModelRequest sends a batch of host-scoped updates.
type updateHostModelRequest struct {
	codec   codec.Codec
	updates []model.HostUpdate
}

func (r *updateHostModelRequest) RequestCode() byte  { return protocol.UpdateHostModelRequest }
func (r *updateHostModelRequest) ResponseCode() byte { return protocol.UpdateHostModelResponse }

func (r *updateHostModelRequest) WritePayload(w io.Writer) error {
	return writeUpdateBatch(w, r.codec,
		protocol.ParamHostModelUpdateCount, protocol.ParamHostModelUpdate, r.updates)
}

func (r *updateHostModelRequest) ReadPayload(rd io.Reader) ([]model.UpdateResult, error) {
	return readResultBatch(rd, r.codec, len(r.updates))
}

// updateServerModelRequest sends a batch of updates scoped to one named
// server: server name first, then the usual count/item sequence.
type updateServerModelRequest struct {
	codec      codec.Codec
	serverName string
	updates    []model.ServerUpdate
}

func (r *updateServerModelRequest) RequestCode() byte  { return protocol.UpdateServerModelRequest }
func (r *updateServerModelRequest) ResponseCode() byte { return protocol.UpdateServerModelResponse }

func (r *updateServerModelRequest) WritePayload(w io.Writer) error {
	if err := protocol.WriteByte(w, protocol.ParamServerName); err != nil {
		return err
	}
	if err := protocol.WriteString(w, r.serverName); err != nil {
		return err
	}
	return writeUpdateBatch(w, r.codec,
		protocol.ParamServerModelUpdateCount, protocol.ParamServerModelUpdate, r.updates)
}

func (r *updateServerModelRequest) ReadPayload(rd io.Reader) ([]model.UpdateResult, error) {
	return readResultBatch(rd, r.codec, len(r.updates))
}

// writeUpdateBatch emits the shared batch grammar:
// [count-tag][int32 count] then per item [item-tag][encoded update].
func writeUpdateBatch[U any](w io.Writer, c codec.Codec, countTag, itemTag byte, updates []U) error {
	if err := protocol.WriteByte(w, countTag); err != nil {
		return err
	}
	if err := protocol.WriteInt(w, int32(len(updates))); err != nil {
		return err
	}
	for i, update := range updates {
		data, err := c.Encode(update)
		if err != nil {
			return fmt.Errorf("encoding update %d: %w", i, err)
		}
		if err := protocol.WriteByte(w, itemTag); err != nil {
			return err
		}
		if err := protocol.WriteBlob(w, data); err != nil {
			return err
		}
	}
	return nil
}

// readResultBatch decodes the shared response grammar. The announced count
// must equal the sent count: a disagreement fails the whole call with no
// partial result list — result i corresponds to sent update i or nothing
// does.
func readResultBatch(r io.Reader, c codec.Codec, sent int) ([]model.UpdateResult, error) {
	if err := protocol.ExpectHeader(r, protocol.ParamModelUpdateResponseCount); err != nil {
		return nil, err
	}
	count, err := protocol.ReadInt(r)
	if err != nil {
		return nil, fmt.Errorf("reading response count: %w", err)
	}
	if count < 0 || count > protocol.MaxBatchItems {
		return nil, fmt.Errorf("announced result count %d out of range", count)
	}
	if int(count) != sent {
		return nil, fmt.Errorf("%w: sent %d, response announced %d", ErrCountMismatch, sent, count)
	}

	results := make([]model.UpdateResult, 0, count)
	for i := int32(0); i < count; i++ {
		if err := protocol.ExpectHeader(r, protocol.ParamModelUpdateResponse); err != nil {
			return nil, err
		}
		data, err := protocol.ReadBlob(r)
		if err != nil {
			return nil, fmt.Errorf("reading result %d: %w", i, err)
		}
		var result model.UpdateResult
		if err := c.Decode(data, &result); err != nil {
			return nil, fmt.Errorf("decoding result %d: %w", i, err)
		}
		results = append(results, result)
	}
	return results, nil
}
