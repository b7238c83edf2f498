package helper

// NoticeType distinguishes success and error notices.
type NoticeType string

const (
	NoticeSuccess NoticeType = "success"
	NoticeError   NoticeType = "error"
)

// Notice is a transient, request-scoped message about a product's licence.
type Notice struct {
	Type    NoticeType `json:"type"`
	Message string     `json:"message"`
}

// Notices accumulates notices per product for one request. It is not safe for
// concurrent use and is never persisted. A nil *Notices discards everything.
type Notices struct {
	byProduct map[string][]Notice
}

// NewNotices returns an empty notice sink.
func NewNotices() *Notices {
	return &Notices{byProduct: make(map[string][]Notice)}
}

// AddError appends an error notice for product.
func (n *Notices) AddError(product, message string) {
	n.add(NoticeError, product, message)
}

// AddSuccess appends a success notice for product.
func (n *Notices) AddSuccess(product, message string) {
	n.add(NoticeSuccess, product, message)
}

func (n *Notices) add(t NoticeType, product, message string) {
	if n == nil {
		return
	}
	if n.byProduct == nil {
		n.byProduct = make(map[string][]Notice)
	}
	n.byProduct[product] = append(n.byProduct[product], Notice{Type: t, Message: message})
}

// Messages returns product's notices, initializing the list on first use.
func (n *Notices) Messages(product string) []Notice {
	if n == nil {
		return []Notice{}
	}
	if n.byProduct == nil {
		n.byProduct = make(map[string][]Notice)
	}
	if _, ok := n.byProduct[product]; !ok {
		n.byProduct[product] = []Notice{}
	}
	return n.byProduct[product]
}

// All returns every product's notices.
func (n *Notices) All() map[string][]Notice {
	if n == nil {
		return map[string][]Notice{}
	}
	out := make(map[string][]Notice, len(n.byProduct))
	for product, list := range n.byProduct {
		if len(list) > 0 {
			out[product] = list
		}
	}
	return out
}
