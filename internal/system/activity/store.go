// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package activity

import "context"

// Repository persists activity entries.
type Repository interface {

	/*
		Insert appends one entry under id.

		Parameters:
		  - context: context.Context
		  - id: string
		  - entry: Entry

		Returns:
		  - error: Persistence failures
	*/
	Insert(context context.Context, id string, entry Entry) error

	/*
		List returns a page of logs, newest first.

		Parameters:
		  - context: context.Context
		  - filter: Filter
		  - limit, offset: int

		Returns:
		  - []*Log: The page
		  - int: Total matching rows
		  - error: Database retrieval failures
	*/
	List(context context.Context, filter Filter, limit, offset int) ([]*Log, int, error)
}
