package entitlements

import "testing"

func TestParseTier(t *testing.T) {
	tests := []struct {
		in      string
		want    Tier
		wantErr bool
	}{
		{in: "free", want: TierFree},
		{in: "starter", want: TierStarter},
		{in: "pro", want: TierPro},
		{in: "enterprise", want: TierEnterprise},
		{in: " PRO ", want: TierPro},
		{in: "simple", wantErr: true},
		{in: "", wantErr: true},
		{in: "gold", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseTier(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseTier(%q) expected error, got %q", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseTier(%q) unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseTier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTierRank(t *testing.T) {
	if TierRank(TierFree) >= TierRank(TierStarter) {
		t.Fatalf("expected starter to outrank free")
	}
	if TierRank(TierStarter) >= TierRank(TierPro) {
		t.Fatalf("expected pro to outrank starter")
	}
	if TierRank(TierPro) >= TierRank(TierEnterprise) {
		t.Fatalf("expected enterprise to outrank pro")
	}
}

func TestCapChecksBelowAtAndAboveCap(t *testing.T) {
	for _, tier := range []Tier{TierFree, TierStarter, TierPro, TierEnterprise} {
		p, err := ProfileFor(tier)
		if err != nil {
			t.Fatalf("ProfileFor(%q): %v", tier, err)
		}

		checks := []struct {
			name string
			cap  int
			fn   func(Tier, int) bool
		}{
			{"CanCreateListing", p.MaxActiveListings, CanCreateListing},
			{"CanUploadPhoto", p.MaxPhotosPerListing, CanUploadPhoto},
			{"CanFeatureListing", p.MaxFeaturedSlots, CanFeatureListing},
			{"CanBoostForFree", p.FreeBoostsPerCycle, CanBoostForFree},
			{"CanModifyListing", p.MaxFreeModsPerListing, CanModifyListing},
		}

		for _, c := range checks {
			if c.cap == Unlimited {
				for _, used := range []int{0, 1, 1000000} {
					if !c.fn(tier, used) {
						t.Fatalf("%s(%q, %d) = false, want true for unlimited cap", c.name, tier, used)
					}
				}
				continue
			}
			if c.cap > 0 && !c.fn(tier, c.cap-1) {
				t.Fatalf("%s(%q, %d) = false below cap %d", c.name, tier, c.cap-1, c.cap)
			}
			if c.fn(tier, c.cap) {
				t.Fatalf("%s(%q, %d) = true at cap", c.name, tier, c.cap)
			}
			if c.fn(tier, c.cap+1) {
				t.Fatalf("%s(%q, %d) = true above cap", c.name, tier, c.cap+1)
			}
		}
	}
}

func TestCanModifyListingZeroCap(t *testing.T) {
	// The free pack includes no modifications at all.
	if CanModifyListing(TierFree, 0) {
		t.Fatalf("expected free tier to disallow modifications entirely")
	}
}

func TestCanAddTeamMember(t *testing.T) {
	if CanAddTeamMember(TierFree, 0) {
		t.Fatalf("free tier must not manage a team")
	}
	if CanAddTeamMember(TierStarter, 0) {
		t.Fatalf("starter tier must not manage a team")
	}
	if !CanAddTeamMember(TierPro, 2) {
		t.Fatalf("pro tier should allow a third member")
	}
	if CanAddTeamMember(TierPro, 3) {
		t.Fatalf("pro tier should cap at three members")
	}
	if !CanAddTeamMember(TierEnterprise, 9) {
		t.Fatalf("enterprise tier should allow a tenth member")
	}
}

func TestBoostPrice(t *testing.T) {
	tests := []struct {
		tier  Tier
		count int
		want  int64
	}{
		{TierFree, 1, 500},
		{TierFree, 4, 2000},
		{TierFree, 5, 2000},  // bundle price kicks in
		{TierFree, 7, 2000},  // still the bundle rule
		{TierStarter, 3, 1200},
		{TierStarter, 5, 1600},
		{TierPro, 2, 600},
		{TierPro, 5, 1200},
		{TierEnterprise, 1, 0},
		{TierEnterprise, 5, 0},
		{TierEnterprise, 100, 0},
		{TierFree, 0, 0},
		{TierFree, -1, 0},
	}

	for _, tt := range tests {
		if got := BoostPrice(tt.tier, tt.count); got != tt.want {
			t.Fatalf("BoostPrice(%q, %d) = %d, want %d", tt.tier, tt.count, got, tt.want)
		}
	}
}

func TestBundlePriceDiffersFromUnitTimesFive(t *testing.T) {
	p, _ := ProfileFor(TierFree)
	if p.BoostUnitPrice*5 == p.BoostBundlePrice {
		t.Fatalf("test fixture should exercise a bundle discount")
	}
	if got := BoostPrice(TierFree, 5); got != p.BoostBundlePrice {
		t.Fatalf("BoostPrice(free, 5) = %d, want bundle price %d", got, p.BoostBundlePrice)
	}
}

func TestFeaturedDurationDays(t *testing.T) {
	tests := []struct {
		tier Tier
		want int
	}{
		{TierFree, 0},
		{TierStarter, 7},
		{TierPro, 14},
		{TierEnterprise, 30},
	}
	for _, tt := range tests {
		if got := FeaturedDurationDays(tt.tier); got != tt.want {
			t.Fatalf("FeaturedDurationDays(%q) = %d, want %d", tt.tier, got, tt.want)
		}
	}
}

func TestMessageFallbacks(t *testing.T) {
	if msg := Message(Tier("bogus"), LimitAds); msg != genericLimitMessage {
		t.Fatalf("unknown tier should fall back to the generic message, got %q", msg)
	}
	if msg := Message(TierFree, LimitKind(99)); msg != genericLimitMessage {
		t.Fatalf("unknown limit kind should fall back to the generic message, got %q", msg)
	}
	if msg := Message(TierFree, LimitAds); msg == genericLimitMessage || msg == "" {
		t.Fatalf("known tier and kind should produce a specific message, got %q", msg)
	}
}
