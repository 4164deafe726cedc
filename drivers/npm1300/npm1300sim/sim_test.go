package npm1300sim

import (
	"errors"
	"testing"
	"time"
)

func TestReadWriteRegisters(t *testing.T) {
	s := New()
	if err := s.Tx(Address, []byte{BaseChgr, OffIset, 0x25, 0x01}, nil); err != nil {
		t.Fatal(err)
	}
	r := make([]byte, 2)
	if err := s.Tx(Address, []byte{BaseChgr, OffIset}, r); err != nil {
		t.Fatal(err)
	}
	if r[0] != 0x25 || r[1] != 0x01 {
		t.Fatalf("read back % x", r)
	}
	if err := s.Tx(0x10, []byte{BaseChgr, OffIset}, r); !errors.Is(err, ErrNak) {
		t.Fatalf("wrong address: %v", err)
	}
}

func TestFaults(t *testing.T) {
	s := New()
	boom := errors.New("boom")
	s.Fail(BaseAdc, OffTaskVbat, boom, 2)
	w := []byte{BaseAdc, OffTaskVbat, 1}
	for i := 0; i < 2; i++ {
		if err := s.Tx(Address, w, nil); err != boom {
			t.Fatalf("try %d: %v", i, err)
		}
	}
	if err := s.Tx(Address, w, nil); err != nil {
		t.Fatal(err)
	}
	if s.WritesTo(BaseAdc, OffTaskVbat) != 1 {
		t.Fatal("failed writes recorded")
	}
}

func TestPacking(t *testing.T) {
	s := New()
	s.SetVbat(803)
	s.SetNtc(514)
	s.SetIbat(IbatChgNormal, 67)
	r := make([]byte, ResultsLen)
	if err := s.Tx(Address, []byte{BaseAdc, OffResults}, r); err != nil {
		t.Fatal(err)
	}
	if r[fIbatStat] != IbatChgNormal || r[fMsbVbat] != 200 || r[fMsbNtc] != 128 || r[fMsbIbat] != 16 {
		t.Fatalf("frame % x", r)
	}
	if r[fLsbA] != 0b1011 || r[fLsbB] != 0b11_0000 {
		t.Fatalf("lsb bytes %08b %08b", r[fLsbA], r[fLsbB])
	}
}

func TestCodes(t *testing.T) {
	if c := NtcCode(25, 3380); c != 512 {
		t.Fatalf("NtcCode(25) = %d", c)
	}
	if NtcCode(40, 3380) >= NtcCode(10, 3380) {
		t.Fatal("NTC code should fall with temperature")
	}
	if c := VbatCode(3906); c != 799 {
		t.Fatalf("VbatCode = %d", c)
	}
	if c := IbatCode(-75, -150); c != 512 {
		t.Fatalf("IbatCode = %d", c)
	}
}

func TestCellDischarges(t *testing.T) {
	now := time.Unix(0, 0)
	c := &Cell{
		CapacityMilliAh: 100, SoC: 0.5, LoadMilliA: 100, ChargeMilliA: 150,
		DischargeFSmA: 1000, Celsius: 25, Beta: 3380,
		Now: func() time.Time { return now },
	}
	s := New()
	c.Attach(s)
	now = now.Add(30 * time.Minute)
	if err := s.Tx(Address, []byte{BaseAdc, OffTaskVbat, 1}, nil); err != nil {
		t.Fatal(err)
	}
	if c.SoC > 0.01 {
		t.Fatalf("SoC = %v after half an hour at 1C", c.SoC)
	}
	if s.Reg(BaseAdc, OffResults) != IbatDischarge {
		t.Fatal("regime not discharge")
	}

	// Plug in and enable charging.
	s.SetVbusStatus(1)
	_ = s.Tx(Address, []byte{BaseChgr, OffEnSet, 1}, nil)
	now = now.Add(10 * time.Minute)
	_ = s.Tx(Address, []byte{BaseAdc, OffTaskVbat, 1}, nil)
	if s.Reg(BaseAdc, OffResults) != IbatChgNormal {
		t.Fatal("regime not charging")
	}
}

func TestCellOCVCurve(t *testing.T) {
	var asked []float64
	c := &Cell{
		CapacityMilliAh: 100, SoC: 0.25, DischargeFSmA: 1000, Celsius: 25, Beta: 3380,
		Now: time.Now,
		OCV: func(soc float64) float64 {
			asked = append(asked, soc)
			return 4.0
		},
	}
	s := New()
	c.Attach(s)
	if len(asked) != 1 || asked[0] != 25 {
		t.Fatalf("OCV asked at %v, want [25]", asked)
	}
	// 4000 mV on the 5 V scale: code 819, MSB 819>>2 and LSB 819&3.
	if msb := s.Reg(BaseAdc, OffResults+1); msb != 819>>2 {
		t.Fatalf("VBAT MSB = %#x", msb)
	}
}
