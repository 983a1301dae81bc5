package cache

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/wwwouaiebe/TravelNotes-sub003/internal/clients/overpass"
)

// EncodeResponse msgpack-encodes a response and compresses it with zstd
func EncodeResponse(response *overpass.Response) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd writer: %w", err)
	}

	if err := msgpack.NewEncoder(zw).Encode(response); err != nil {
		zw.Close()
		return nil, fmt.Errorf("msgpack encode: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zstd close: %w", err)
	}

	return buf.Bytes(), nil
}

// DecodeResponse reverses EncodeResponse
func DecodeResponse(b []byte) (*overpass.Response, error) {
	zr, err := zstd.NewReader(bytes.NewReader(b), zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer zr.Close()

	var response overpass.Response
	if err := msgpack.NewDecoder(zr).Decode(&response); err != nil {
		return nil, fmt.Errorf("msgpack decode: %w", err)
	}
	return &response, nil
}
