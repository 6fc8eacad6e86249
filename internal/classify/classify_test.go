package classify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/attaboy/matchedge/internal/domain"
)

func TestTournament(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		surface domain.Surface
		level   domain.Level
	}{
		{"Australian Open", domain.SurfaceHard, domain.LevelGrandSlam},
		{"Roland Garros", domain.SurfaceClay, domain.LevelGrandSlam},
		{"French Open", domain.SurfaceClay, domain.LevelGrandSlam},
		{"Wimbledon", domain.SurfaceGrass, domain.LevelGrandSlam},
		{"US Open", domain.SurfaceHard, domain.LevelGrandSlam},
		{"Indian Wells Masters", domain.SurfaceHard, domain.LevelMasters},
		{"Monte Carlo Masters", domain.SurfaceClay, domain.LevelMasters},
		{"Madrid Open", domain.SurfaceClay, domain.LevelMasters},
		{"Rome Masters", domain.SurfaceClay, domain.LevelMasters},
		{"Shanghai Masters", domain.SurfaceHard, domain.LevelMasters},
		{"ATP Doha (Hard)", domain.SurfaceHard, domain.LevelATP},
		{"WTA Stuttgart (Clay)", domain.SurfaceClay, domain.LevelWTA},
		{"Phoenix Challenger (Hard)", domain.SurfaceHard, domain.LevelChallenger},
		{"ITF Futures Antalya (Clay)", domain.SurfaceClay, domain.LevelITF},
		{"M15 Antalya (Clay)", domain.SurfaceClay, domain.LevelITF},
		{"W25 Nottingham (Grass)", domain.SurfaceGrass, domain.LevelITF},
		{"W100 Shrewsbury (Indoor)", domain.SurfaceHard, domain.LevelITF},
		{"Ladies Open Lausanne (Clay)", domain.SurfaceClay, domain.LevelWTA},
		{"Halle Open (Grass)", domain.SurfaceGrass, domain.LevelATP},
		{"Davis Cup (Hard)", domain.SurfaceHard, domain.LevelATP},
		{"Exhibition Kooyong", domain.SurfaceUnknown, domain.LevelOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			surface, level := Tournament(tt.name, now)
			assert.Equal(t, tt.surface, surface, "surface")
			assert.Equal(t, tt.level, level, "level")
		})
	}
}

func TestTournament_MastersSurfaceOverride(t *testing.T) {
	// An explicit surface hint in the name wins over the default.
	surface, level := Tournament("Madrid Open (Indoor Hard)", time.Now())
	assert.Equal(t, domain.LevelMasters, level)
	assert.Equal(t, domain.SurfaceHard, surface)
}

func TestKFactor(t *testing.T) {
	tests := []struct {
		level domain.Level
		k     float64
	}{
		{domain.LevelGrandSlam, 48},
		{domain.LevelMasters, 32},
		{domain.LevelATP, 32},
		{domain.LevelWTA, 28},
		{domain.LevelChallenger, 24},
		{domain.LevelITF, 20},
		{domain.LevelOther, 24},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.k, KFactor(tt.level), string(tt.level))
	}
}

func TestIsWomens(t *testing.T) {
	assert.True(t, IsWomens("WTA Stuttgart"))
	assert.True(t, IsWomens("W60 Canberra"))
	assert.True(t, IsWomens("Ladies Open Lausanne"))
	assert.True(t, IsWomens("Birmingham Women's Classic"))
	assert.False(t, IsWomens("ATP Doha"))
	assert.False(t, IsWomens("Wimbledon"))
}

func TestIsMens(t *testing.T) {
	assert.True(t, IsMens("ATP Doha"))
	assert.True(t, IsMens("M15 Antalya"))
	assert.True(t, IsMens("Men's Singles Final"))
	assert.False(t, IsMens("W25 Nottingham"))
	assert.False(t, IsMens("Wimbledon"))
}
