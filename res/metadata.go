package res

const (
	AppName       = "mediabridge"
	DisplayName   = "Media Bridge"
	AppVersion    = "0.3.0"
	AppVersionTag = "v" + AppVersion
	ConfigFile    = "config.toml"
	GithubURL     = "https://github.com/dweymouth/mediabridge"
	Copyright     = "Copyright © 2024–2026 Drew Weymouth and contributors"
)
