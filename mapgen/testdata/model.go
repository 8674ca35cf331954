package blog

import "time"

type Author struct {
	ID      int64  `db:"pk,autoincrement"`
	Name    string `db:"required"`
	Email   string `db:"unique,not_null"`
	Avatar  []byte
	Posts   []Post
	Profile *Profile
	secret  string
}

type Post struct {
	ID        int64
	AuthorID  int64  `db:"ref=authors"`
	Title     string `db:"required"`
	Score     float64
	Draft     bool
	Published time.Time
	Internal  string `db:"-"`
}

func (Post) TableName() string { return "articles" }

type Profile struct {
	ID       int64
	AuthorID int64 `db:"ref=authors:id"`
	Bio      string
}

type Orphan struct {
	ID    int64
	Notes []Note
}

type Note struct {
	ID   int64
	Text string
}

type BadAutoInc struct {
	Code string `db:"pk,autoincrement"`
}

type Unsupported struct {
	Ch chan int
}
