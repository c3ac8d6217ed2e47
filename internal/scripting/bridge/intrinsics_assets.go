package bridge

import (
	"github.com/assetkit-dev/assetkit/internal/domain/traits"
)

func eventIntrinsics() []Intrinsic {
	return []Intrinsic{
		{
			Name: "triggerEvent", Category: CategoryEvents, Placeholder: 0.0,
			Params: []Param{req("name", KindString), opt("data", KindAny, nil)},
			Handler: func(c *Call) (any, error) {
				return float64(c.Env.Emit(c.String(0), c.Arg(1))), nil
			},
		},
		forward(CategoryEvents, "broadcastEvent", false, req("name", KindString), opt("data", KindAny, nil)),
		{
			Name: "getEventData", Category: CategoryEvents,
			Handler: func(c *Call) (any, error) {
				return Normalize(c.Env.EventData()), nil
			},
		},
	}
}

func assetManagementIntrinsics() []Intrinsic {
	return []Intrinsic{
		{
			Name: "findAsset", Category: CategoryAssets,
			Params: []Param{req("name", KindString)},
			Handler: func(c *Call) (any, error) {
				info, ok := c.Services.Assets.Find(c.String(0))
				if !ok {
					return nil, nil
				}
				return Normalize(info), nil
			},
		},
		{
			Name: "findAssetByGuid", Category: CategoryAssets,
			Params: []Param{req("guid", KindString)},
			Handler: func(c *Call) (any, error) {
				info, ok := c.Services.Assets.FindByGUID(c.String(0))
				if !ok {
					return nil, nil
				}
				return Normalize(info), nil
			},
		},
		{
			Name: "getAllAssets", Category: CategoryAssets, Placeholder: []any{},
			Handler: func(c *Call) (any, error) {
				all := c.Services.Assets.All()
				out := make([]any, len(all))
				for i, info := range all {
					out[i] = Normalize(info)
				}
				return out, nil
			},
		},
		forward(CategoryAssets, "instantiateAsset", "",
			req("guid", KindString), opt("x", KindNumber, 0.0), opt("y", KindNumber, 0.0), opt("z", KindNumber, 0.0)),
		forward(CategoryAssets, "destroyAsset", false, req("guid", KindString)),
		{
			Name: "setVisible", Category: CategoryAssets, Placeholder: false,
			Params: []Param{req("visible", KindBool)},
			Handler: func(c *Call) (any, error) {
				v, ok := traits.Get[*traits.Visibility](c.traitSet())
				if !ok {
					return nil, ErrNoTrait
				}
				v.Set(c.Bool(0))
				return true, nil
			},
		},
		{
			Name: "isVisible", Category: CategoryAssets, Placeholder: false,
			Handler: func(c *Call) (any, error) {
				v, ok := traits.Get[*traits.Visibility](c.traitSet())
				if !ok {
					return nil, ErrNoTrait
				}
				return v.Get(), nil
			},
		},
		forward(CategoryAssets, "setAssetVisible", false, req("guid", KindString), req("visible", KindBool)),
	}
}

func traitIntrinsics() []Intrinsic {
	return []Intrinsic{
		{
			Name: "hasTrait", Category: CategoryTraits, Placeholder: false,
			Params: []Param{req("name", KindString)},
			Handler: func(c *Call) (any, error) {
				set := c.traitSet()
				if set == nil {
					return nil, ErrNoTarget
				}
				return set.Has(c.String(0)), nil
			},
		},
		{
			Name: "getTrait", Category: CategoryTraits,
			Params: []Param{req("name", KindString)},
			Handler: func(c *Call) (any, error) {
				set := c.traitSet()
				if set == nil {
					return nil, ErrNoTarget
				}
				t, ok := set.ByName(c.String(0))
				if !ok {
					return nil, ErrNoTrait
				}
				return Normalize(t.Value()), nil
			},
		},
		{
			Name: "setTrait", Category: CategoryTraits, Placeholder: false,
			Params: []Param{req("name", KindString), opt("value", KindAny, nil)},
			Handler: func(c *Call) (any, error) {
				set := c.traitSet()
				if set == nil {
					return nil, ErrNoTarget
				}
				t, ok := set.ByName(c.String(0))
				if !ok {
					return nil, ErrNoTrait
				}
				if err := t.SetValue(c.Arg(1)); err != nil {
					return nil, err
				}
				return true, nil
			},
		},
		{
			Name: "addTrait", Category: CategoryTraits, Placeholder: false,
			Params: []Param{req("name", KindString), opt("value", KindAny, nil)},
			Handler: func(c *Call) (any, error) {
				set := c.traitSet()
				if set == nil {
					return nil, ErrNoTarget
				}
				t, err := traits.FromValue(c.String(0), c.Arg(1))
				if err != nil {
					return nil, err
				}
				if err := set.Add(t); err != nil {
					return nil, err
				}
				return true, nil
			},
		},
		{
			Name: "removeTrait", Category: CategoryTraits, Placeholder: false,
			Params: []Param{req("name", KindString)},
			Handler: func(c *Call) (any, error) {
				set := c.traitSet()
				if set == nil {
					return nil, ErrNoTarget
				}
				_, ok := set.Remove(c.String(0))
				return ok, nil
			},
		},
		{
			Name: "listTraits", Category: CategoryTraits, Placeholder: []any{},
			Handler: func(c *Call) (any, error) {
				set := c.traitSet()
				if set == nil {
					return nil, ErrNoTarget
				}
				return Normalize(set.Names()), nil
			},
		},
	}
}
