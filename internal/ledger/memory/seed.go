package memory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"

	"moim/internal/core"
)

const seedFile = "seed_meetings.yaml"

// seedMeeting is the YAML shape of data/seed_meetings.yaml.
type seedMeeting struct {
	ID           string `yaml:"id"`
	Title        string `yaml:"title"`
	Date         string `yaml:"date"`
	Location     string `yaml:"location"`
	Participants []struct {
		Name string `yaml:"name"`
		Fee  int64  `yaml:"fee"`
	} `yaml:"participants"`
	Expenses []struct {
		Description string `yaml:"description"`
		Amount      int64  `yaml:"amount"`
		Category    string `yaml:"category"`
	} `yaml:"expenses"`
	Donations []struct {
		DonorName string `yaml:"donor"`
		Amount    int64  `yaml:"amount"`
		Note      string `yaml:"note"`
	} `yaml:"donations"`
	Photos []struct {
		URL       string `yaml:"url"`
		Caption   string `yaml:"caption"`
		Thumbnail bool   `yaml:"thumbnail"`
	} `yaml:"photos"`
	Comments []struct {
		Author  string `yaml:"author"`
		Content string `yaml:"content"`
	} `yaml:"comments"`
}

// ErrDuplicateID refuses a seed file listing two meetings with one id.
var ErrDuplicateID = errors.New("duplicate meeting id")

func readSeedFile(base string) ([]core.Meeting, error) {
	b, err := os.ReadFile(filepath.Join(base, seedFile))
	if err != nil {
		return nil, err
	}
	return parseSeed(b, time.Now())
}

func parseSeed(b []byte, now time.Time) ([]core.Meeting, error) {
	var seeds []seedMeeting
	if err := yaml.Unmarshal(b, &seeds); err != nil {
		return nil, fmt.Errorf("parse seed meetings: %w", err)
	}
	out := make([]core.Meeting, 0, len(seeds))
	seen := make(map[string]bool, len(seeds))
	for i, s := range seeds {
		date, err := core.ParseDate(s.Date)
		if err != nil {
			return nil, fmt.Errorf("seed meeting %d: %w", i, err)
		}
		m := core.Meeting{
			ID:        s.ID,
			Title:     s.Title,
			Date:      date,
			Location:  s.Location,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if m.ID == "" {
			m.ID = fmt.Sprint(i + 1)
		}
		if seen[m.ID] {
			return nil, fmt.Errorf("seed meeting %d: %w: %s", i, ErrDuplicateID, m.ID)
		}
		seen[m.ID] = true
		// Ids only need to be unique within the meeting.
		for j, p := range s.Participants {
			m.Participants = append(m.Participants, core.Participant{ID: fmt.Sprint(j + 1), Name: p.Name, Fee: nonNegative(p.Fee)})
		}
		for j, e := range s.Expenses {
			m.Expenses = append(m.Expenses, core.Expense{ID: fmt.Sprint(j + 1), Description: e.Description, Amount: nonNegative(e.Amount), Category: e.Category})
		}
		for j, d := range s.Donations {
			m.Donations = append(m.Donations, core.Donation{ID: fmt.Sprint(j + 1), DonorName: d.DonorName, Amount: nonNegative(d.Amount), Note: d.Note})
		}
		for j, p := range s.Photos {
			m.Photos = append(m.Photos, core.Photo{ID: fmt.Sprint(j + 1), URL: p.URL, Caption: p.Caption, IsThumbnail: p.Thumbnail})
		}
		for j, c := range s.Comments {
			m.Comments = append(m.Comments, core.Comment{ID: fmt.Sprint(j + 1), AuthorName: c.Author, Content: c.Content, CreatedAt: now})
		}
		out = append(out, m)
	}
	return out, nil
}

// DemoMeetings returns the two sample meetings shown on a fresh install.
func DemoMeetings() []core.Meeting {
	meetings, err := parseSeed([]byte(demoSeed), time.Now())
	if err != nil {
		panic(fmt.Sprintf("invalid built-in demo seed: %v", err))
	}
	return meetings
}

const demoSeed = `
- id: "1"
  title: 3월 정기모임
  date: "2024-03-15"
  location: 서초구 반포동 맛집
  participants:
    - {name: 김영희, fee: 50000}
    - {name: 박철수, fee: 50000}
    - {name: 이수진, fee: 50000}
    - {name: 최민호, fee: 50000}
  expenses:
    - {description: 점심식사, amount: 120000}
    - {description: 커피, amount: 40000}
    - {description: 기념품, amount: 20000}
  donations:
    - {donor: 정상호, amount: 20000, note: 늦게 와서 죄송합니다}
  photos:
    - {url: /static/placeholder.svg, caption: 모임 단체사진, thumbnail: true}
    - {url: /static/placeholder.svg, caption: 맛있는 음식}
  comments:
    - {author: 김영희, content: 오늘 정말 즐거웠어요!}
    - {author: 박철수, content: 다음에도 또 만나요~}
- id: "2"
  title: 2월 송년모임
  date: "2024-02-20"
  location: 강남구 맛집
  participants:
    - {name: 김영희, fee: 60000}
    - {name: 박철수, fee: 60000}
    - {name: 이수진, fee: 60000}
  expenses:
    - {description: 저녁식사, amount: 150000}
    - {description: 노래방, amount: 30000}
  photos:
    - {url: /static/placeholder.svg, caption: 송년회 사진, thumbnail: true}
`

// nonNegative applies the form rule to seeded amounts: negatives become 0.
func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
