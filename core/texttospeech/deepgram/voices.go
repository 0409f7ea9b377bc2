package deepgram

type Voice string

const (
	VoiceAsteria Voice = "aura-asteria-en"
	VoiceLuna    Voice = "aura-luna-en"
	VoiceStella  Voice = "aura-stella-en"
	VoiceAthena  Voice = "aura-athena-en"
	VoiceHera    Voice = "aura-hera-en"
	VoiceOrion   Voice = "aura-orion-en"
	VoiceArcas   Voice = "aura-arcas-en"
	VoicePerseus Voice = "aura-perseus-en"
	VoiceAngus   Voice = "aura-angus-en"
	VoiceOrpheus Voice = "aura-orpheus-en"
	VoiceHelios  Voice = "aura-helios-en"
	VoiceZeus    Voice = "aura-zeus-en"

	VoiceThalia2    Voice = "aura-2-thalia-en"
	VoiceAndromeda2 Voice = "aura-2-andromeda-en"
	VoiceHelena2    Voice = "aura-2-helena-en"
	VoiceApollo2    Voice = "aura-2-apollo-en"
	VoiceAries2     Voice = "aura-2-aries-en"
	VoiceOdysseus2  Voice = "aura-2-odysseus-en"
)

const DefaultVoice = VoiceAsteria

func GetAvailableVoices() []Voice {
	return []Voice{
		VoiceAsteria, VoiceLuna, VoiceStella, VoiceAthena, VoiceHera, VoiceOrion,
		VoiceArcas, VoicePerseus, VoiceAngus, VoiceOrpheus, VoiceHelios, VoiceZeus,
		VoiceThalia2, VoiceAndromeda2, VoiceHelena2, VoiceApollo2, VoiceAries2, VoiceOdysseus2,
	}
}
