// Package views decides which shell a browser sees and tracks the page shown
// inside each shell.
package views

import (
	"fmt"
	"sync"

	"github.com/angelmondragon/printshop-backend/internal/session"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
)

type Screen string

const (
	ScreenLoading  Screen = "loading"
	ScreenAuth     Screen = "auth"
	ScreenCustomer Screen = "customer"
	ScreenAdmin    Screen = "admin"
)

// Route picks the screen for st. It looks at nothing else.
func Route(st session.State) Screen {
	switch {
	case st.IsLoading:
		return ScreenLoading
	case st.Identity == nil || st.Profile == nil:
		return ScreenAuth
	case st.Profile.IsAdmin():
		return ScreenAdmin
	default:
		return ScreenCustomer
	}
}

type CustomerPage string

const (
	CustomerPageDashboard CustomerPage = "dashboard"
	CustomerPageNewOrder  CustomerPage = "new-order"
)

func ParseCustomerPage(v string) (CustomerPage, error) {
	switch p := CustomerPage(v); p {
	case CustomerPageDashboard, CustomerPageNewOrder:
		return p, nil
	}
	return "", fmt.Errorf("invalid customer page %q", v)
}

type AdminPage string

const (
	AdminPageOrders    AdminPage = "orders"
	AdminPageMaterials AdminPage = "materials"
)

func ParseAdminPage(v string) (AdminPage, error) {
	switch p := AdminPage(v); p {
	case AdminPageOrders, AdminPageMaterials:
		return p, nil
	}
	return "", fmt.Errorf("invalid admin page %q", v)
}

// View is what the browser renders.
type View struct {
	Screen Screen        `json:"screen"`
	Page   string        `json:"page,omitempty"`
	State  session.State `json:"session"`
}

// Navigator holds the in-memory page of both shells for one browser.
type Navigator struct {
	mu       sync.Mutex
	customer CustomerPage
	admin    AdminPage
}

func NewNavigator() *Navigator {
	return &Navigator{customer: CustomerPageDashboard, admin: AdminPageOrders}
}

// Current resolves the view for st, including the page of the routed shell.
func (n *Navigator) Current(st session.State) View {
	n.mu.Lock()
	defer n.mu.Unlock()
	v := View{Screen: Route(st), State: st}
	switch v.Screen {
	case ScreenCustomer:
		v.Page = string(n.customer)
	case ScreenAdmin:
		v.Page = string(n.admin)
	}
	return v
}

// Navigate moves the shell routed for st to page. Pages of the other shell,
// or navigation while no shell is shown, are rejected.
func (n *Navigator) Navigate(st session.State, page string) (View, error) {
	screen := Route(st)
	n.mu.Lock()
	switch screen {
	case ScreenCustomer:
		p, err := ParseCustomerPage(page)
		if err != nil {
			n.mu.Unlock()
			return View{}, pkgerrors.Validation(err.Error())
		}
		n.customer = p
	case ScreenAdmin:
		p, err := ParseAdminPage(page)
		if err != nil {
			n.mu.Unlock()
			return View{}, pkgerrors.Validation(err.Error())
		}
		n.admin = p
	default:
		n.mu.Unlock()
		return View{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to navigate")
	}
	n.mu.Unlock()
	return n.Current(st), nil
}

// Reset returns both shells to their default pages.
func (n *Navigator) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.customer = CustomerPageDashboard
	n.admin = AdminPageOrders
}
