package store

import (
	"bytes"
	"testing"
)

func TestRecordRoundTrip(t *testing.T) {
	rec := NewRecord(Key{7}, sampleBundle())
	rec.CreatedAt = 42
	data, err := MarshalRecord(rec)
	if err != nil {
		t.Fatal(err)
	}
	got, err := UnmarshalRecord(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.Key != rec.Key || got.Code != rec.Code || got.CreatedAt != 42 || got.ExternalNames["a.py:1:f"] != "f" {
		t.Errorf("round trip = %+v", got)
	}
}

func TestRecordCanonical(t *testing.T) {
	rec := NewRecord(Key{1}, sampleBundle())
	rec.ExternalNames = map[string]string{"z": "1", "a": "2", "m": "3", "b": "4"}
	first, err := MarshalRecord(rec)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		again, _ := MarshalRecord(rec)
		if !bytes.Equal(first, again) {
			t.Fatal("encoding is not deterministic")
		}
	}
}

func TestUnmarshalRecordError(t *testing.T) {
	if _, err := UnmarshalRecord([]byte{0xff, 0x00}); err == nil {
		t.Error("garbage decoded")
	}
}
