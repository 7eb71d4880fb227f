package contracts

type ITokenManagement interface {
	CountTokens(text string) int
	TrackArtifact(serialized []byte) int
	GetCurrentTokenUsage() (last int, total int, artifacts int)
	DisplayTokens(path string, size int)
	ClearToken()
}
