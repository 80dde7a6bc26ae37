package simulation

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/lao-tseu-is-alive/go-boids-follow/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-boids-follow/pkg/swarm"
	"github.com/lao-tseu-is-alive/go-boids-follow/pkg/telemetry"
)

// Messages exchanged with the world actor, package swarm.v1:
//
//	message Tick         { double delta_seconds = 1; }
//	message SetTarget    { double x = 1; double y = 2; }
//	message ClearTargets {}
//	message Reset        { bytes config_json = 1; }
//	message GetSnapshot  {}
//	message AgentState   { uint32 id = 1; double x = 2; double y = 3; double orientation = 4; bool colliding = 5; }
//	message Snapshot     { uint64 tick = 1; double elapsed = 2; bool has_target = 3;
//	                       double target_x = 4; double target_y = 5;
//	                       repeated AgentState agents = 6; uint32 colliding = 7;
//	                       double mean_distance = 8; double stddev_distance = 9;
//	                       double mean_alignment = 10; }
const (
	TickName         protoreflect.FullName = "swarm.v1.Tick"
	SetTargetName    protoreflect.FullName = "swarm.v1.SetTarget"
	ClearTargetsName protoreflect.FullName = "swarm.v1.ClearTargets"
	ResetName        protoreflect.FullName = "swarm.v1.Reset"
	GetSnapshotName  protoreflect.FullName = "swarm.v1.GetSnapshot"
	AgentStateName   protoreflect.FullName = "swarm.v1.AgentState"
	SnapshotName     protoreflect.FullName = "swarm.v1.Snapshot"
)

var swarmFile protoreflect.FileDescriptor

func init() {
	optional := descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum()
	repeated := descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
	field := func(name string, num int32, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
		return &descriptorpb.FieldDescriptorProto{
			Name:   proto.String(name),
			Number: proto.Int32(num),
			Label:  optional,
			Type:   typ.Enum(),
		}
	}
	message := func(name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
		return &descriptorpb.DescriptorProto{Name: proto.String(name), Field: fields}
	}
	const (
		double  = descriptorpb.FieldDescriptorProto_TYPE_DOUBLE
		boolean = descriptorpb.FieldDescriptorProto_TYPE_BOOL
		uint32T = descriptorpb.FieldDescriptorProto_TYPE_UINT32
		uint64T = descriptorpb.FieldDescriptorProto_TYPE_UINT64
		bytesT  = descriptorpb.FieldDescriptorProto_TYPE_BYTES
	)

	agents := field("agents", 6, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE)
	agents.Label = repeated
	agents.TypeName = proto.String("." + string(AgentStateName))

	fdp := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("swarm/v1/swarm.proto"),
		Package: proto.String("swarm.v1"),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			message("Tick", field("delta_seconds", 1, double)),
			message("SetTarget", field("x", 1, double), field("y", 2, double)),
			message("ClearTargets"),
			message("Reset", field("config_json", 1, bytesT)),
			message("GetSnapshot"),
			message("AgentState",
				field("id", 1, uint32T),
				field("x", 2, double),
				field("y", 3, double),
				field("orientation", 4, double),
				field("colliding", 5, boolean),
			),
			message("Snapshot",
				field("tick", 1, uint64T),
				field("elapsed", 2, double),
				field("has_target", 3, boolean),
				field("target_x", 4, double),
				field("target_y", 5, double),
				agents,
				field("colliding", 7, uint32T),
				field("mean_distance", 8, double),
				field("stddev_distance", 9, double),
				field("mean_alignment", 10, double),
			),
		},
	}
	fd, err := protodesc.NewFile(fdp, nil)
	if err != nil {
		panic(fmt.Sprintf("swarm.v1 descriptor: %v", err))
	}
	swarmFile = fd
}

func descriptor(name protoreflect.FullName) protoreflect.MessageDescriptor {
	return swarmFile.Messages().ByName(name.Name())
}

func newMessage(name protoreflect.FullName) *dynamicpb.Message {
	return dynamicpb.NewMessage(descriptor(name))
}

func fieldOf(m protoreflect.Message, name protoreflect.Name) protoreflect.FieldDescriptor {
	return m.Descriptor().Fields().ByName(name)
}

func getFloat(m protoreflect.Message, name protoreflect.Name) float64 {
	return m.Get(fieldOf(m, name)).Float()
}

func setFloat(m protoreflect.Message, name protoreflect.Name, v float64) {
	m.Set(fieldOf(m, name), protoreflect.ValueOfFloat64(v))
}

// MessageName returns the full protobuf name of msg.
func MessageName(msg proto.Message) protoreflect.FullName {
	return msg.ProtoReflect().Descriptor().FullName()
}

func NewTick(deltaSeconds float64) proto.Message {
	m := newMessage(TickName)
	setFloat(m, "delta_seconds", deltaSeconds)
	return m
}

func NewSetTarget(pos geometry.Vector2D) proto.Message {
	m := newMessage(SetTargetName)
	setFloat(m, "x", pos.X)
	setFloat(m, "y", pos.Y)
	return m
}

func NewClearTargets() proto.Message { return newMessage(ClearTargetsName) }

func NewGetSnapshot() proto.Message { return newMessage(GetSnapshotName) }

// NewReset asks the world actor to rebuild its world from cfg.
func NewReset(cfg *Config) (proto.Message, error) {
	b, err := cfg.JSON()
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	m := newMessage(ResetName)
	m.Set(fieldOf(m, "config_json"), protoreflect.ValueOfBytes(b))
	return m, nil
}

func tickDelta(msg proto.Message) float64 {
	return getFloat(msg.ProtoReflect(), "delta_seconds")
}

func targetPosition(msg proto.Message) geometry.Vector2D {
	m := msg.ProtoReflect()
	return geometry.Vector2D{X: getFloat(m, "x"), Y: getFloat(m, "y")}
}

func resetConfig(msg proto.Message) (*Config, error) {
	m := msg.ProtoReflect()
	return ParseConfig(m.Get(fieldOf(m, "config_json")).Bytes())
}

// AgentView is one agent as seen by renderers and recorders.
type AgentView struct {
	ID          swarm.AgentID
	Position    geometry.Vector2D
	Orientation float64
	Colliding   bool
}

// Snapshot is the world state after a tick.
type Snapshot struct {
	Target geometry.Vector2D
	Agents []AgentView
	Stats  telemetry.Stats
	// Steering[i] is normalize(follow + avoid) for agent i on the last tick.
	// It is only filled for in-process consumers and is not part of the
	// protobuf form.
	Steering []geometry.Vector2D
}

// Samples converts the agents into agents.csv rows.
func (s *Snapshot) Samples() []telemetry.AgentSample {
	out := make([]telemetry.AgentSample, len(s.Agents))
	for i, a := range s.Agents {
		out[i] = telemetry.AgentSample{
			Tick:        s.Stats.Tick,
			ID:          uint32(a.ID),
			X:           a.Position.X,
			Y:           a.Position.Y,
			Orientation: a.Orientation,
			Colliding:   a.Colliding,
		}
	}
	return out
}

// ToProto encodes s as a swarm.v1.Snapshot.
func (s *Snapshot) ToProto() proto.Message {
	m := newMessage(SnapshotName)
	m.Set(fieldOf(m, "tick"), protoreflect.ValueOfUint64(s.Stats.Tick))
	setFloat(m, "elapsed", s.Stats.Elapsed)
	m.Set(fieldOf(m, "has_target"), protoreflect.ValueOfBool(s.Stats.HasTarget))
	setFloat(m, "target_x", s.Target.X)
	setFloat(m, "target_y", s.Target.Y)
	m.Set(fieldOf(m, "colliding"), protoreflect.ValueOfUint32(uint32(s.Stats.Colliding)))
	setFloat(m, "mean_distance", s.Stats.MeanDistance)
	setFloat(m, "stddev_distance", s.Stats.StdDevDistance)
	setFloat(m, "mean_alignment", s.Stats.MeanAlignment)

	list := m.Mutable(fieldOf(m, "agents")).List()
	for _, a := range s.Agents {
		am := list.NewElement().Message()
		am.Set(fieldOf(am, "id"), protoreflect.ValueOfUint32(uint32(a.ID)))
		setFloat(am, "x", a.Position.X)
		setFloat(am, "y", a.Position.Y)
		setFloat(am, "orientation", a.Orientation)
		am.Set(fieldOf(am, "colliding"), protoreflect.ValueOfBool(a.Colliding))
		list.Append(protoreflect.ValueOfMessage(am))
	}
	return m
}

// SnapshotFromProto decodes a swarm.v1.Snapshot.
func SnapshotFromProto(msg proto.Message) (*Snapshot, error) {
	if name := MessageName(msg); name != SnapshotName {
		return nil, fmt.Errorf("expected %s, got %s", SnapshotName, name)
	}
	m := msg.ProtoReflect()
	list := m.Get(fieldOf(m, "agents")).List()
	s := &Snapshot{
		Target: geometry.Vector2D{X: getFloat(m, "target_x"), Y: getFloat(m, "target_y")},
		Stats: telemetry.Stats{
			Tick:           m.Get(fieldOf(m, "tick")).Uint(),
			Elapsed:        getFloat(m, "elapsed"),
			Agents:         list.Len(),
			HasTarget:      m.Get(fieldOf(m, "has_target")).Bool(),
			MeanDistance:   getFloat(m, "mean_distance"),
			StdDevDistance: getFloat(m, "stddev_distance"),
			MeanAlignment:  getFloat(m, "mean_alignment"),
			Colliding:      int(m.Get(fieldOf(m, "colliding")).Uint()),
		},
	}
	s.Agents = make([]AgentView, list.Len())
	for i := 0; i < list.Len(); i++ {
		am := list.Get(i).Message()
		s.Agents[i] = AgentView{
			ID:          swarm.AgentID(am.Get(fieldOf(am, "id")).Uint()),
			Position:    geometry.Vector2D{X: getFloat(am, "x"), Y: getFloat(am, "y")},
			Orientation: getFloat(am, "orientation"),
			Colliding:   am.Get(fieldOf(am, "colliding")).Bool(),
		}
	}
	return s, nil
}

// MarshalJSON renders s through its protobuf form, with proto field names.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return protojson.MarshalOptions{UseProtoNames: true, EmitUnpopulated: true}.Marshal(s.ToProto())
}
