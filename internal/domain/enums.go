package domain

// ServiceType categorizes the care service a client receives.
type ServiceType string

const (
	ServiceTypeResidential  ServiceType = "RESIDENTIAL"
	ServiceTypeDayProgram   ServiceType = "DAY_PROGRAM"
	ServiceTypeRespite      ServiceType = "RESPITE"
	ServiceTypeEmployment   ServiceType = "EMPLOYMENT"
	ServiceTypeInHome       ServiceType = "IN_HOME"
)

func (s ServiceType) String() string { return string(s) }

func (s ServiceType) IsValid() bool {
	switch s {
	case ServiceTypeResidential, ServiceTypeDayProgram, ServiceTypeRespite,
		ServiceTypeEmployment, ServiceTypeInHome:
		return true
	}
	return false
}

// ClientStatus is the lifecycle status of a client record.
// Clients are never physically deleted; archival is the terminal-ish state
// and can be reversed.
type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "ACTIVE"
	ClientStatusArchived ClientStatus = "ARCHIVED"
)

func (s ClientStatus) String() string { return string(s) }

func (s ClientStatus) IsValid() bool {
	switch s {
	case ClientStatusActive, ClientStatusArchived:
		return true
	}
	return false
}
