package chat

// RoomKey maps an unordered participant pair to its canonical room name.
// Symmetric: RoomKey(a, b) == RoomKey(b, a). The lower id (lexicographic)
// always comes first, so both sides of a conversation land in the same room.
func RoomKey(idA, idB string) string {
	if idA < idB {
		return idA + "_" + idB
	}
	return idB + "_" + idA
}
