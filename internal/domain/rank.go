package domain

type rankStep struct {
	min  int
	name string
}

var rankLadder = []rankStep{
	{0, "Recruit"},
	{100, "Private"},
	{250, "Private First Class"},
	{500, "Corporal"},
	{800, "Sergeant"},
	{1200, "Staff Sergeant"},
	{1700, "Sergeant First Class"},
	{2300, "Master Sergeant"},
	{3000, "First Sergeant"},
	{3800, "Sergeant Major"},
	{4700, "Warrant Officer"},
	{5700, "Chief Warrant Officer"},
	{6800, "Second Lieutenant"},
	{8000, "First Lieutenant"},
	{9300, "Captain"},
	{10700, "Major"},
	{12200, "Lieutenant Colonel"},
	{13800, "Colonel"},
	{15500, "Brigadier General"},
	{17300, "Major General"},
	{19200, "Lieutenant General"},
	{21200, "General"},
	{25000, "General of the Army"},
}

// RankForPoints maps rank points onto the military rank ladder.
func RankForPoints(points int) string {
	rank := rankLadder[0].name
	for _, step := range rankLadder {
		if points < step.min {
			break
		}
		rank = step.name
	}
	return rank
}
