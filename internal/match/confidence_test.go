package match

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/linqiu/onebill/internal/model"
)

func TestConfidencePerfectExactMatch(t *testing.T) {
	c := Confidence(model.ScoreParts{
		DateGap:    0,
		Window:     3,
		Similarity: 100,
		Parts:      1,
	})
	assert.Equal(t, 1.0, c)
}

func TestConfidenceComponents(t *testing.T) {
	tests := []struct {
		name string
		p    model.ScoreParts
		want float64
	}{
		{
			name: "date gap decays within window",
			p:    model.ScoreParts{DateGap: 2, Window: 3, Similarity: 100, Parts: 1},
			// 0.45*(1-2/4) + 0.35 + 0.20
			want: 0.775,
		},
		{
			name: "direction mismatch costs 0.35 per penalty point",
			p:    model.ScoreParts{Window: 3, Similarity: 100, DirectionPenalty: 2, Parts: 1},
			// 0.45 + 0.35 + 0.20*(1-0.7)
			want: 0.86,
		},
		{
			name: "catch-all section penalty",
			p:    model.ScoreParts{Window: 3, Similarity: 100, DirectionPenalty: 1, Parts: 1},
			// 0.45 + 0.35 + 0.20*0.65
			want: 0.93,
		},
		{
			name: "two-part sum discounted",
			p:    model.ScoreParts{Window: 3, Similarity: 100, Parts: 2},
			// 1.0 * (1 - 0.12)
			want: 0.88,
		},
		{
			name: "multipart factor floors at 0.55",
			p:    model.ScoreParts{Window: 3, Similarity: 100, Parts: 9},
			want: 0.55,
		},
		{
			name: "cross channel discount stacks with multipart",
			p:    model.ScoreParts{Window: 3, Similarity: 100, Parts: 2, CrossChannel: true},
			// 0.88 * 0.9
			want: 0.792,
		},
		{
			name: "reuse discount",
			p:    model.ScoreParts{Window: 3, Similarity: 100, Parts: 1, Reused: true},
			want: 0.6,
		},
		{
			name: "no comparable text drops the text term",
			p:    model.ScoreParts{Window: 3, Similarity: 0, Parts: 1},
			want: 0.65,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Confidence(tt.p), 0.0005)
		})
	}
}

func TestConfidenceAmountToleranceFactor(t *testing.T) {
	exact := Confidence(model.ScoreParts{Window: 3, Similarity: 100, Parts: 1})

	half := Confidence(model.ScoreParts{
		Window:          3,
		Similarity:      100,
		Parts:           1,
		AmountGap:       decimal.NewFromFloat(0.025),
		AmountTolerance: decimal.NewFromFloat(0.05),
	})
	assert.InDelta(t, exact*0.5, half, 0.001)

	full := Confidence(model.ScoreParts{
		Window:          3,
		Similarity:      100,
		Parts:           1,
		AmountGap:       decimal.NewFromFloat(0.05),
		AmountTolerance: decimal.NewFromFloat(0.05),
	})
	assert.Equal(t, 0.0, full)
}

func TestConfidenceAlwaysInRange(t *testing.T) {
	// Sweep awkward combinations; the result must stay in [0,1].
	for gap := 0; gap <= 10; gap++ {
		for penalty := 0; penalty <= 2; penalty++ {
			for parts := 1; parts <= 6; parts++ {
				c := Confidence(model.ScoreParts{
					DateGap:          gap,
					Window:           3,
					DirectionPenalty: penalty,
					Similarity:       37,
					Parts:            parts,
					CrossChannel:     parts%2 == 0,
					Reused:           gap%2 == 0,
				})
				assert.GreaterOrEqual(t, c, 0.0)
				assert.LessOrEqual(t, c, 1.0)
			}
		}
	}
}
