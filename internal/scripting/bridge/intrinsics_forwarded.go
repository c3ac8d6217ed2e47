package bridge

// Operations in this file are delegated to the host through the
// hostenv.Forwarder. Without a wired host they return their placeholder.

func animationIntrinsics() []Intrinsic {
	const c = CategoryAnimation
	return []Intrinsic{
		forward(c, "playAnimation", false, req("name", KindString), opt("loop", KindBool, false), opt("speed", KindNumber, 1.0)),
		forward(c, "stopAnimation", false, opt("name", KindString, "")),
		forward(c, "pauseAnimation", false, opt("name", KindString, "")),
		forward(c, "resumeAnimation", false, opt("name", KindString, "")),
		forward(c, "crossfadeAnimation", false, req("name", KindString), opt("duration", KindNumber, 0.25)),
		forward(c, "setAnimationSpeed", false, req("speed", KindNumber)),
		forward(c, "setAnimationParameter", false, req("name", KindString), opt("value", KindAny, nil)),
		forward(c, "getAnimationParameter", nil, req("name", KindString)),
		forward(c, "getAnimationState", ""),
		forward(c, "isAnimationPlaying", false, opt("name", KindString, "")),
	}
}

func physicsIntrinsics() []Intrinsic {
	const c = CategoryPhysics
	return []Intrinsic{
		forward(c, "addForce", false, append(xyz(), opt("mode", KindString, "force"))...),
		forward(c, "addTorque", false, xyz()...),
		forward(c, "setVelocity", false, xyz()...),
		forward(c, "getVelocity", nil),
		forward(c, "setAngularVelocity", false, xyz()...),
		forward(c, "getAngularVelocity", nil),
		forward(c, "setMass", false, req("mass", KindNumber)),
		forward(c, "getMass", 0.0),
		forward(c, "setGravity", false, req("enabled", KindBool)),
		forward(c, "setKinematic", false, req("enabled", KindBool)),
		forward(c, "setCollision", false, req("enabled", KindBool)),
		forward(c, "raycast", nil,
			req("origin", KindVector), req("direction", KindVector), opt("maxDistance", KindNumber, 100.0)),
	}
}

func visualIntrinsics() []Intrinsic {
	const c = CategoryVisual
	return []Intrinsic{
		setColorIntrinsic(),
		getColorIntrinsic(),
		forward(c, "setTexture", false, req("path", KindString)),
		forward(c, "setMaterialProperty", false, req("name", KindString), opt("value", KindAny, nil)),
		forward(c, "getMaterialProperty", nil, req("name", KindString)),
		forward(c, "setEmission", false, req("color", KindColor), opt("intensity", KindNumber, 1.0)),
		forward(c, "setTransparency", false, req("alpha", KindNumber)),
		forward(c, "setShader", false, req("name", KindString)),
		forward(c, "playParticles", false, opt("name", KindString, "")),
		forward(c, "stopParticles", false, opt("name", KindString, "")),
		forward(c, "setParticleRate", false, req("rate", KindNumber), opt("name", KindString, "")),
		forward(c, "setOutline", false, req("enabled", KindBool), opt("color", KindColor, nil)),
	}
}

func audioIntrinsics() []Intrinsic {
	const c = CategoryAudio
	return []Intrinsic{
		forward(c, "playSound", false, req("clip", KindString), opt("volume", KindNumber, 1.0), opt("loop", KindBool, false)),
		forward(c, "stopSound", false, opt("clip", KindString, "")),
		forward(c, "pauseSound", false, opt("clip", KindString, "")),
		forward(c, "setVolume", false, req("volume", KindNumber)),
		forward(c, "getVolume", 0.0),
		forward(c, "setPitch", false, req("pitch", KindNumber)),
		forward(c, "setSoundPosition", false, xyz()...),
		forward(c, "setSpatialBlend", false, req("blend", KindNumber)),
		forward(c, "isSoundPlaying", false, opt("clip", KindString, "")),
		forward(c, "setMasterVolume", false, req("volume", KindNumber)),
	}
}

func sceneIntrinsics() []Intrinsic {
	const c = CategoryScene
	return []Intrinsic{
		forward(c, "loadScene", false, req("name", KindString), opt("additive", KindBool, false)),
		forward(c, "unloadScene", false, req("name", KindString)),
		forward(c, "getCurrentScene", ""),
		forward(c, "getLoadedScenes", []any{}),
		forward(c, "findObjectsByTag", []any{}, req("tag", KindString)),
		forward(c, "setAmbientLight", false, req("color", KindColor)),
		forward(c, "setFog", false, req("enabled", KindBool), opt("density", KindNumber, 0.01)),
		forward(c, "setSkybox", false, req("name", KindString)),
		forward(c, "setLightIntensity", false, req("intensity", KindNumber)),
		forward(c, "setTimeOfDay", false, req("hours", KindNumber)),
	}
}

func inputIntrinsics() []Intrinsic {
	const c = CategoryInput
	return []Intrinsic{
		forward(c, "isKeyPressed", false, req("key", KindString)),
		forward(c, "isKeyDown", false, req("key", KindString)),
		forward(c, "isKeyUp", false, req("key", KindString)),
		forward(c, "getMousePosition", nil),
		forward(c, "isMouseButtonPressed", false, opt("button", KindNumber, 0.0)),
		forward(c, "getAxis", 0.0, req("name", KindString)),
		forward(c, "getTouchCount", 0.0),
		forward(c, "getTouch", nil, req("index", KindNumber)),
		forward(c, "raycastFromScreen", nil, req("sx", KindNumber), req("sy", KindNumber), opt("maxDistance", KindNumber, 100.0)),
		forward(c, "isPointerOverAsset", false),
	}
}

func cameraIntrinsics() []Intrinsic {
	const c = CategoryCamera
	return []Intrinsic{
		forward(c, "setCameraPosition", false, append(xyz(), opt("duration", KindNumber, 0.0))...),
		forward(c, "getCameraPosition", nil),
		forward(c, "setCameraRotation", false, append(xyz(), opt("duration", KindNumber, 0.0))...),
		forward(c, "getCameraRotation", nil),
		forward(c, "setCameraTarget", false, append(xyz(), opt("duration", KindNumber, 0.0))...),
		forward(c, "followAsset", false, opt("guid", KindString, "")),
		forward(c, "setCameraFOV", false, req("fov", KindNumber), opt("duration", KindNumber, 0.0)),
		forward(c, "getCameraFOV", 0.0),
		forward(c, "shakeCamera", false, opt("intensity", KindNumber, 1.0), opt("duration", KindNumber, 0.5)),
		forward(c, "setCameraEffect", false, req("name", KindString), opt("enabled", KindBool, true)),
	}
}

func networkIntrinsics() []Intrinsic {
	const c = CategoryNetwork
	return []Intrinsic{
		forward(c, "connectToServer", false, req("url", KindString)),
		forward(c, "disconnectFromServer", false),
		forward(c, "isConnected", false),
		forward(c, "getConnectionState", "disconnected"),
		forward(c, "sendToServer", false, req("event", KindString), opt("data", KindAny, nil)),
		forward(c, "sendToPlayer", false, req("player", KindString), req("event", KindString), opt("data", KindAny, nil)),
		forward(c, "getPlayerList", []any{}),
		forward(c, "getLocalPlayerId", ""),
		forward(c, "getPing", 0.0),
		forward(c, "isHost", false),
	}
}
