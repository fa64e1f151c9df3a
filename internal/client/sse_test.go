package client

import (
	"testing"

	"aipm/internal/types"
)

const sampleStream = "event: message\n" +
	"data: {\"type\":\"token\",\"data\":{\"text\":\"Hello\"}}\n" +
	"\n" +
	"data: {\"type\":\"token\",\"data\":{\"text\":\" world\"}}\n" +
	"\n" +
	"data: {\"type\":\"sops_found\",\"data\":{\"sops\":[{\"id\":\"s1\",\"title\":\"Checklist\"}]}}\n" +
	"\n" +
	"data: {\"type\":\"done\",\"data\":{\"phase\":\"gathering\"}}\n" +
	"\n"

func decodeAll(d *Decoder, chunks ...[]byte) []types.StreamEvent {
	var events []types.StreamEvent
	for _, chunk := range chunks {
		events = append(events, d.Feed(chunk)...)
	}
	if event, ok := d.Close(); ok {
		events = append(events, event)
	}
	return events
}

func TestDecoderSplitInvariant(t *testing.T) {
	whole := decodeAll(&Decoder{}, []byte(sampleStream))
	if len(whole) != 4 {
		t.Fatalf("expected 4 events from single chunk, got %d", len(whole))
	}

	// Every split point must yield the identical event sequence.
	for cut := 0; cut <= len(sampleStream); cut++ {
		d := &Decoder{}
		got := decodeAll(d, []byte(sampleStream[:cut]), []byte(sampleStream[cut:]))
		if len(got) != len(whole) {
			t.Fatalf("cut %d: expected %d events, got %d", cut, len(whole), len(got))
		}
		for i := range whole {
			if got[i].Type != whole[i].Type || string(got[i].Data) != string(whole[i].Data) {
				t.Fatalf("cut %d: event %d differs: %+v vs %+v", cut, i, got[i], whole[i])
			}
		}
	}
}

func TestDecoderByteAtATime(t *testing.T) {
	d := &Decoder{}
	var events []types.StreamEvent
	for i := 0; i < len(sampleStream); i++ {
		events = append(events, d.Feed([]byte{sampleStream[i]})...)
	}
	if event, ok := d.Close(); ok {
		events = append(events, event)
	}
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	token, ok := events[0].Token()
	if !ok {
		t.Fatalf("first event is not a token: %+v", events[0])
	}
	if token.Text != "Hello" {
		t.Fatalf("token text: %q", token.Text)
	}
}

func TestDecoderCRLFFrames(t *testing.T) {
	stream := "data: {\"type\":\"token\",\"data\":{\"text\":\"a\"}}\r\n\r\n" +
		"data: {\"type\":\"done\",\"data\":{}}\r\n\r\n"
	events := decodeAll(&Decoder{}, []byte(stream))
	if len(events) != 2 || events[0].Type != types.StreamEventToken || events[1].Type != types.StreamEventDone {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestDecoderDropsMalformedFrames(t *testing.T) {
	stream := "data: {not json\n\n" +
		"data: {\"type\":\"\",\"data\":{}}\n\n" +
		": comment only\n\n" +
		"data: {\"type\":\"token\",\"data\":{\"text\":\"ok\"}}\n\n"
	events := decodeAll(&Decoder{}, []byte(stream))
	if len(events) != 1 || events[0].Type != types.StreamEventToken {
		t.Fatalf("expected only the well-formed event, got %+v", events)
	}
}

func TestDecoderCloseFlushesUnterminatedFrame(t *testing.T) {
	d := &Decoder{}
	if events := d.Feed([]byte("data: {\"type\":\"done\",\"data\":{}}")); len(events) != 0 {
		t.Fatalf("frame completed without separator: %+v", events)
	}
	event, ok := d.Close()
	if !ok || event.Type != types.StreamEventDone {
		t.Fatalf("trailing frame not flushed: %+v ok=%v", event, ok)
	}
	if _, ok := d.Close(); ok {
		t.Fatalf("second close produced an event")
	}
}

func TestDecoderJoinsMultiLineData(t *testing.T) {
	stream := "data: {\"type\":\"token\",\n" +
		"data: \"data\":{\"text\":\"joined\"}}\n\n"
	events := decodeAll(&Decoder{}, []byte(stream))
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	token, ok := events[0].Token()
	if !ok || token.Text != "joined" {
		t.Fatalf("multi-line data not joined: %+v ok=%v", token, ok)
	}
}
