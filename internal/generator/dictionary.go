package generator

// Dictionary is the built-in list of common English words.
var Dictionary = []string{
	"the", "be", "to", "of", "and", "a", "in", "that", "have", "it", "for", "not", "on", "with", "he", "as",
	"you", "do", "at", "this", "but", "his", "by", "from", "they", "we", "say", "her", "she", "or", "an",
	"will", "my", "one", "all", "would", "there", "their", "what", "so", "up", "out", "if", "about", "who",
	"get", "which", "go", "me", "when", "make", "can", "like", "time", "no", "just", "him", "know", "take",
	"people", "into", "year", "your", "good", "some", "could", "them", "see", "other", "than", "then",
	"now", "look", "only", "come", "its", "over", "think", "also", "back", "after", "use", "two", "how",
	"our", "work", "first", "well", "way", "even", "new", "want", "because", "any", "these", "give",
	"day", "most", "us", "is", "was", "are", "been", "has", "had", "were", "said", "did", "having", "may",
	"should", "does", "done", "being", "am", "world", "life", "hand", "part", "child", "eye", "woman",
	"place", "case", "point", "government", "company", "number", "group", "problem", "fact", "right",
	"great", "small", "large", "next", "early", "young", "important", "different", "public", "able",
	"bad", "free", "human", "local", "long", "little", "own", "few", "high", "better", "open", "best",
	"big", "simple", "sure", "clear", "yet", "matter", "set", "every", "must", "include", "follow",
	"stop", "change", "play", "move", "pay", "run", "continue", "sit", "stand", "lose", "meet", "bring",
	"happen", "write", "provide", "call", "try", "need", "feel", "become", "leave", "put", "mean",
	"keep", "let", "begin", "seem", "help", "talk", "turn", "start", "show", "hear", "might", "sound",
	"live", "believe", "hold", "occur", "read", "book", "story", "room", "job", "week", "hour", "game",
	"line", "end", "member", "law", "car", "city", "name", "team", "minute", "idea", "kid", "body",
	"information", "nothing", "ago", "lead", "social", "understand", "whether", "watch", "together",
	"around", "parent", "face", "create", "speak", "others", "level", "allow", "add", "office", "spend",
	"door", "health", "person", "art", "war", "history", "party", "result", "morning", "reason",
	"research", "girl", "guy", "moment", "air", "teacher", "force", "offer",
}
