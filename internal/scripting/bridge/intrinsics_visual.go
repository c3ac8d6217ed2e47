package bridge

import (
	"github.com/assetkit-dev/assetkit/internal/domain/traits"
	"github.com/assetkit-dev/assetkit/internal/domain/values"
)

func setColorIntrinsic() Intrinsic {
	return Intrinsic{
		Name: "setColor", Category: CategoryVisual, Placeholder: false,
		Params: []Param{req("r", KindNumber), req("g", KindNumber), req("b", KindNumber), opt("a", KindNumber, 1.0)},
		Handler: func(c *Call) (any, error) {
			tint, ok := traits.Get[*traits.Tint](c.traitSet())
			if !ok {
				return nil, ErrNoTrait
			}
			tint.Set(values.Color{R: c.Number(0), G: c.Number(1), B: c.Number(2), A: c.Number(3)}.Clamped())
			return true, nil
		},
	}
}

func getColorIntrinsic() Intrinsic {
	return Intrinsic{
		Name: "getColor", Category: CategoryVisual,
		Handler: func(c *Call) (any, error) {
			tint, ok := traits.Get[*traits.Tint](c.traitSet())
			if !ok {
				return nil, ErrNoTrait
			}
			return tint.Get(), nil
		},
	}
}
