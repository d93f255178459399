package team

import "context"

type Repository interface {
	List(ctx context.Context) ([]Team, error)
	ListNames(ctx context.Context) ([]string, error)
}
