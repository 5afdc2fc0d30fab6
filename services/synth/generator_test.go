package synth

import (
	"math"
	"testing"
)

const ts = int64(1_700_000_000_000_000_000)

func TestSplitWeight(t *testing.T) {
	l, r := SplitWeight(70, 0)
	if math.Abs(l-343.35) > 1e-9 || math.Abs(r-343.35) > 1e-9 {
		t.Errorf("70 kg / 0 %% split = %v / %v, want 343.35 each", l, r)
	}

	l, r = SplitWeight(70, 10)
	// 686.7 × 0.55 and × 0.45
	if math.Abs(l-377.685) > 1e-9 || math.Abs(r-309.015) > 1e-9 {
		t.Errorf("70 kg / 10 %% split = %v / %v", l, r)
	}
}

func TestScenarioSeventyKgSymmetric(t *testing.T) {
	g := NewGenerator(1).SetJitter(0)
	s, err := g.Generate(WithBodyWeight(70), WithAsymmetry(0), WithTimestamp(ts))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if math.Abs(s.LeftTotal()-343.35) > 1e-9 || math.Abs(s.RightTotal()-343.35) > 1e-9 {
		t.Errorf("deck totals = %v / %v, want 343.35", s.LeftTotal(), s.RightTotal())
	}
	if math.Abs(s.TotalGRF()-686.7) > 1e-9 {
		t.Errorf("GRF = %v, want 686.7", s.TotalGRF())
	}
	if s.ForceSymmetryIndex() != 0 {
		t.Errorf("FSI = %v, want 0", s.ForceSymmetryIndex())
	}
	if s.CombinedCoPX() != 0 {
		t.Errorf("combined CoP = %v, want 0", s.CombinedCoPX())
	}
	if !s.SuitableForBalance() || !s.SuitableForJump() || !s.SuitableForIsometric() {
		t.Errorf("686.7 N symmetric stance should pass every gate")
	}
	// positional offsets {-1.5,-0.5,0.5,1.5}: population std = sqrt(1.25)
	want := 100 - math.Sqrt(1.25)/10
	if math.Abs(s.QualityScore()-want) > 1e-9 {
		t.Errorf("quality = %v, want %v", s.QualityScore(), want)
	}
}

func TestZeroAsymmetryWithJitterStaysNearZero(t *testing.T) {
	g := NewGenerator(42)
	for i := 0; i < 500; i++ {
		s, err := g.Generate(WithAsymmetry(0), WithTimestamp(ts), WithIndex(uint64(i)))
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		// worst case: +20 N on one deck, −20 N on the other
		if s.ForceSymmetryIndex() > 40.0/(686.7-40)*100 {
			t.Fatalf("sample %d: FSI %v too large for zero target asymmetry", i, s.ForceSymmetryIndex())
		}
		if !s.IsValid() {
			t.Fatalf("sample %d invalid: %v", i, s)
		}
	}
}

func TestSameSeedReproducible(t *testing.T) {
	a, b := NewGenerator(7), NewGenerator(7)
	for i := 0; i < 50; i++ {
		sa, _ := a.Generate(WithTimestamp(ts), WithIndex(uint64(i)), WithBodyWeight(82))
		sb, _ := b.Generate(WithTimestamp(ts), WithIndex(uint64(i)), WithBodyWeight(82))
		if sa != sb {
			t.Fatalf("sample %d differs: %v vs %v", i, sa, sb)
		}
	}

	c := NewGenerator(8)
	sa, _ := NewGenerator(7).Generate(WithTimestamp(ts))
	sc, _ := c.Generate(WithTimestamp(ts))
	if sa == sc {
		t.Errorf("different seeds produced identical samples")
	}
}

func TestJitterBounded(t *testing.T) {
	g := NewGenerator(3)
	share := 343.35 / 4
	for i := 0; i < 200; i++ {
		s, _ := g.Generate(WithAsymmetry(0), WithTimestamp(ts))
		for j, f := range s.LeftForces() {
			if math.Abs(f-share-positionalOffsetN[j]) > DefaultJitterN+1e-9 {
				t.Fatalf("cell %d = %v outside jitter band", j, f)
			}
		}
	}
}

func TestVariants(t *testing.T) {
	g := NewGenerator(11).SetJitter(0)

	q, err := g.QuietStanding(WithTimestamp(ts))
	if err != nil {
		t.Fatalf("QuietStanding: %v", err)
	}
	if math.Abs(q.ForceSymmetryIndex()-QuietAsymmetryPct) > 1e-9 {
		t.Errorf("quiet FSI = %v, want %v", q.ForceSymmetryIndex(), QuietAsymmetryPct)
	}

	j, err := g.Jump(WithTimestamp(ts))
	if err != nil {
		t.Fatalf("Jump: %v", err)
	}
	if math.Abs(j.TotalGRF()-70*Gravity*DefaultJumpMultiplier) > 1e-9 {
		t.Errorf("jump GRF = %v", j.TotalGRF())
	}
	if math.Abs(j.ForceSymmetryIndex()-JumpAsymmetryPct) > 1e-9 {
		t.Errorf("jump FSI = %v, want %v", j.ForceSymmetryIndex(), JumpAsymmetryPct)
	}
	if !j.SuitableForJump() {
		t.Errorf("default jump sample should be jump-suitable")
	}

	j3, _ := g.Jump(WithTimestamp(ts), WithJumpMultiplier(3))
	if j3.TotalGRF() <= j.TotalGRF() {
		t.Errorf("larger multiplier should raise GRF")
	}
}

func TestExtremeInputsNotCorrected(t *testing.T) {
	g := NewGenerator(5).SetJitter(0)
	s, err := g.Jump(WithBodyWeight(400), WithJumpMultiplier(10), WithTimestamp(ts))
	if err != nil {
		t.Fatalf("Jump: %v", err)
	}
	if s.IsValid() {
		t.Errorf("40 kN jump should exceed the cell ceiling and be invalid")
	}
}

func TestSamplingRate(t *testing.T) {
	g := NewGenerator(1).SetSamplingRate(2000)
	s, _ := g.Generate(WithTimestamp(ts))
	if s.SamplingRate() != 2000 {
		t.Errorf("rate = %v, want 2000", s.SamplingRate())
	}
	g.SetSamplingRate(-1)
	s, _ = g.Generate(WithTimestamp(ts))
	if s.SamplingRate() != DefaultSamplingRateHz {
		t.Errorf("non-positive rate should fall back to default, got %v", s.SamplingRate())
	}
}
