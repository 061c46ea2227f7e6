package mp4pipeline

import (
	"testing"
	"time"
)

func TestBuildMP4_EmptyStream(t *testing.T) {
	if _, err := buildMP4(nil, []time.Duration{0}, 100, 50, 30); err == nil {
		t.Error("expected error for empty stream")
	}
}

func TestBuildMP4_MissingParameterSets(t *testing.T) {
	// A stream with slices but no SPS/PPS cannot be muxed.
	stream := annexb(startCode4, naluAUD, naluIDR)
	if _, err := buildMP4(stream, []time.Duration{0}, 100, 50, 30); err == nil {
		t.Error("expected error for missing SPS/PPS")
	}
}

func TestExtractSPSPPS(t *testing.T) {
	units := []accessUnit{
		{nalus: [][]byte{naluSPS, naluPPS, naluIDR}, isKeyframe: true},
		{nalus: [][]byte{naluSlice}},
	}
	sps, pps, err := extractSPSPPS(units)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nalType(sps) != nalTypeSPS || nalType(pps) != nalTypePPS {
		t.Errorf("wrong NAL units extracted: %x %x", sps, pps)
	}
}

func TestExtractSPSPPS_AcrossUnits(t *testing.T) {
	// Parameter sets split over two frames are still found.
	units := []accessUnit{
		{nalus: [][]byte{naluSPS, naluIDR}, isKeyframe: true},
		{nalus: [][]byte{naluPPS, naluSlice}},
	}
	if _, _, err := extractSPSPPS(units); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExtractSPSPPS_Missing(t *testing.T) {
	units := []accessUnit{{nalus: [][]byte{naluIDR}}}
	if _, _, err := extractSPSPPS(units); err == nil {
		t.Error("expected error")
	}
	units = []accessUnit{{nalus: [][]byte{naluSPS, naluIDR}}}
	if _, _, err := extractSPSPPS(units); err == nil {
		t.Error("expected error for missing PPS")
	}
}

func TestTicks(t *testing.T) {
	cases := []struct {
		d         time.Duration
		timescale uint32
		want      uint32
	}{
		{0, 30000, 0},
		{time.Second, 30000, 30000},
		{500 * time.Millisecond, 30000, 15000},
		{2 * time.Second, 1000, 2000},
	}
	for _, tc := range cases {
		if got := ticks(tc.d, tc.timescale); got != tc.want {
			t.Errorf("ticks(%s, %d) = %d, want %d", tc.d, tc.timescale, got, tc.want)
		}
	}
}
