package clipdata

import "testing"

func TestValidateRejectsEmptyFormat(t *testing.T) {
	d := Data{Items: []Item{{Format: "", Payload: []byte("x")}}}
	if err := d.Validate(); err == nil {
		t.Fatalf("expected error for empty format")
	}
}

func TestTotalLen(t *testing.T) {
	d := Data{Items: []Item{
		{Format: Text, Payload: []byte("hi")},
		{Format: HTMLFormat, Payload: []byte("<b>x</b>")},
	}}
	if got, want := d.TotalLen(), int64(2+8); got != want {
		t.Fatalf("got %d want %d", got, want)
	}
}

func TestUTF8RoundTrip(t *testing.T) {
	for _, format := range []string{Text, SystemString, HTMLFormat, RichTextFormat} {
		want := "hello, world"
		enc, err := Encode(format, want)
		if err != nil {
			t.Fatalf("%s encode: %v", format, err)
		}
		dec, err := Decode(format, enc)
		if err != nil {
			t.Fatalf("%s decode: %v", format, err)
		}
		if dec.(string) != want {
			t.Fatalf("%s round-trip: got %q want %q", format, dec, want)
		}
	}
}

func TestUnicodeTextRoundTrip(t *testing.T) {
	want := "αβγδ"
	enc, err := Encode(UnicodeText, want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(enc)%2 != 0 {
		t.Fatalf("expected even-length UTF-16LE payload, got %d", len(enc))
	}
	dec, err := Decode(UnicodeText, enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dec.(string) != want {
		t.Fatalf("got %q want %q", dec, want)
	}
}

func TestOEMTextRoundTrip(t *testing.T) {
	want := "plain ascii"
	enc, err := Encode(OEMText, want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	dec, err := Decode(OEMText, enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dec.(string) != want {
		t.Fatalf("got %q want %q", dec, want)
	}
}

func TestLocaleAndDibAreRawBytes(t *testing.T) {
	for _, format := range []string{Locale, Dib} {
		payload := []byte{0x01, 0x02, 0x03}
		enc, err := Encode(format, payload)
		if err != nil {
			t.Fatalf("%s encode: %v", format, err)
		}
		dec, err := Decode(format, enc)
		if err != nil {
			t.Fatalf("%s decode: %v", format, err)
		}
		gotBytes, ok := dec.([]byte)
		if !ok || string(gotBytes) != string(payload) {
			t.Fatalf("%s round-trip mismatch: got %v want %v", format, dec, payload)
		}
	}
}

func TestUnknownFormatPassesThroughRaw(t *testing.T) {
	payload := []byte("whatever bytes")
	dec, err := Decode("Some.Unknown.Format", payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(dec.([]byte)) != string(payload) {
		t.Fatalf("unknown format payload mutated")
	}
}

func TestWaveAudioAndBitmapAreNoop(t *testing.T) {
	for _, format := range []string{WaveAudio, Bitmap} {
		if _, ok := converters[format]; !ok {
			t.Fatalf("%s should be present in the table (handshake parity)", format)
		}
		if b, err := Encode(format, "x"); err != nil || b != nil {
			t.Fatalf("%s encode should be a no-op, got %v, %v", format, b, err)
		}
	}
}

func TestDibDoesNotMisrouteToLocale(t *testing.T) {
	// Dib must store/round-trip under its own key, never under Locale.
	payload := []byte{0x28, 0x00, 0x00, 0x00}
	dec, err := Decode(Dib, payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(dec.([]byte)) != string(payload) {
		t.Fatalf("Dib payload mismatch")
	}
}
