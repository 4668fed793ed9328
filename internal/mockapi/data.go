package mockapi

import (
	"fmt"
	"hash/fnv"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
)

var techStacks = []string{
	"React", "Node.js", "Express", "MongoDB", "Go", "PostgreSQL", "Redis",
	"TypeScript", "Next.js", "Tailwind", "Docker", "Kubernetes", "Python",
	"Django", "Flutter", "Firebase", "GraphQL", "AWS", "Rust", "Svelte",
}

// projectNamespace scopes generated project ids.
var projectNamespace = uuid.MustParse("6f1c0c8e-3d52-4b7a-9a57-2e0d5f8b9c41")

// Project is a project as the backend serves it.
type Project struct {
	ID          string   `json:"_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Image       string   `json:"img"`
	TechStacks  []string `json:"techstacks"`
}

// UserProjects is the body of GET /api/project/user-projects/{userId}.
type UserProjects struct {
	Projects             []Project `json:"projects"`
	CollaboratedProjects []Project `json:"collaboratedProjects"`
}

// Generate returns the projects for userID. The same id always yields the
// same projects.
func Generate(userID string) UserProjects {
	f := gofakeit.New(seedFor(userID))
	return UserProjects{
		Projects:             generateList(f, userID, "owned", f.Number(0, 4)),
		CollaboratedProjects: generateList(f, userID, "collaborated", f.Number(0, 3)),
	}
}

func generateList(f *gofakeit.Faker, userID, kind string, n int) []Project {
	out := make([]Project, 0, n)
	for i := 0; i < n; i++ {
		id := uuid.NewSHA1(projectNamespace, []byte(fmt.Sprintf("%s/%s/%d", userID, kind, i)))
		out = append(out, Project{
			ID:          id.String(),
			Title:       f.AppName(),
			Description: f.Sentence(f.Number(6, 40)),
			Image:       fmt.Sprintf("https://picsum.photos/seed/%s/640/360", id.String()[:8]),
			TechStacks:  pickStacks(f, f.Number(0, 6)),
		})
	}
	return out
}

func pickStacks(f *gofakeit.Faker, n int) []string {
	seen := make(map[string]bool, n)
	out := make([]string, 0, n)
	for len(out) < n {
		s := techStacks[f.Number(0, len(techStacks)-1)]
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func seedFor(userID string) int64 {
	h := fnv.New64a()
	h.Write([]byte(userID))
	return int64(h.Sum64())
}
