package bridge

import (
	"fmt"
	"log/slog"
)

// Category names.
const (
	CategoryLogging   = "logging"
	CategoryAssetInfo = "asset"
	CategoryTransform = "transform"
	CategoryAnimation = "animation"
	CategoryEvents    = "events"
	CategoryAssets    = "assets"
	CategoryPhysics   = "physics"
	CategoryVisual    = "visual"
	CategoryAudio     = "audio"
	CategoryScene     = "scene"
	CategoryInput     = "input"
	CategoryTiming    = "timing"
	CategoryState     = "state"
	CategoryTraits    = "traits"
	CategoryCamera    = "camera"
	CategoryNetwork   = "network"
	CategoryAPI       = "api"
	CategoryMath      = "math"
)

func loggingIntrinsics() []Intrinsic {
	entry := func(name string, level slog.Level) Intrinsic {
		return Intrinsic{
			Name:        name,
			Category:    CategoryLogging,
			Params:      []Param{opt("message", KindAny, "")},
			Placeholder: true,
			Handler: func(c *Call) (any, error) {
				msg := c.Services.Redactor.Redact(Stringify(c.Arg(0)))
				c.Logger().Log(c.Ctx, level, msg)
				switch level {
				case slog.LevelError:
					c.Env.ErrorOutput(msg)
				case slog.LevelInfo:
					c.Env.Output(msg)
				default:
					c.Env.Output(fmt.Sprintf("[%s] %s", level, msg))
				}
				return true, nil
			},
		}
	}
	return []Intrinsic{
		entry("debug", slog.LevelDebug),
		entry("log", slog.LevelInfo),
		entry("warn", slog.LevelWarn),
		entry("error", slog.LevelError),
	}
}

func assetInfoIntrinsics() []Intrinsic {
	return []Intrinsic{
		{
			Name: "getAssetName", Category: CategoryAssetInfo, Placeholder: "",
			Handler: func(c *Call) (any, error) {
				if c.Target == nil {
					return "", nil
				}
				return c.Target.Name(), nil
			},
		},
		{
			Name: "getAssetGuid", Category: CategoryAssetInfo, Placeholder: "",
			Handler: func(c *Call) (any, error) {
				if c.Target == nil || c.Target.GUID().IsZero() {
					return "", nil
				}
				return c.Target.GUID().String(), nil
			},
		},
		{
			Name: "getAssetType", Category: CategoryAssetInfo, Placeholder: "",
			Handler: func(c *Call) (any, error) {
				if c.Target == nil {
					return "", nil
				}
				return c.Target.TypeName(), nil
			},
		},
		{
			Name: "getMetadata", Category: CategoryAssetInfo,
			Params: []Param{req("key", KindString)},
			Handler: func(c *Call) (any, error) {
				if c.Target == nil {
					return nil, ErrNoTarget
				}
				v, ok := c.Target.MetadataValue(c.String(0))
				if !ok {
					return nil, nil
				}
				return Normalize(v), nil
			},
		},
	}
}
